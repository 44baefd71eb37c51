package novdl

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageParam is the query parameter carrying the sub-page index.
const DefaultPageParam = "p"

// RawPage is the unparsed response for one requested page.
type RawPage struct {
	// URL is the address that was requested.
	URL string

	// FinalURL is the address that actually served the content after
	// redirects. Sites sometimes redirect out-of-range page requests, so the
	// served page number is read from here rather than from URL.
	FinalURL string

	HTML string
}

// Fetcher retrieves one page. Implementations perform exactly one request:
// no retries and no content validation.
type Fetcher interface {
	// Fetch requests the URL and returns the response body.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*RawPage, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// PageURL returns the address of sub-page n of a chapter.
// Page 1 is the bare address; later pages append param=n to the query.
func PageURL(address ChapterAddress, n int, param string) string {
	if n <= 1 {
		return string(address)
	}
	if param == "" {
		param = DefaultPageParam
	}
	sep := "?"
	if strings.Contains(string(address), "?") {
		sep = "&"
	}
	return string(address) + sep + url.QueryEscape(param) + "=" + strconv.Itoa(n)
}

// ServedPage returns the page number encoded in rawURL's param query value,
// or 1 when it is absent or not a positive integer.
func ServedPage(rawURL string, param string) int {
	if param == "" {
		param = DefaultPageParam
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(u.Query().Get(param))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

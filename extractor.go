package novdl

import "strings"

// ExtractFailureText is the text an extractor reports when no content
// locator matched the page.
const ExtractFailureText = "内容解析失败，请检查选择器"

// failureMarkers are the phrases that identify failure text, whether it was
// produced by an extractor or by rendering a failed page.
var failureMarkers = []string{
	"内容解析失败",
	"获取页面失败",
	"请求失败",
	"内容获取失败",
}

// ContainsFailureMarker reports whether text contains any failure marker.
func ContainsFailureMarker(text string) bool {
	for _, m := range failureMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Extraction holds the content extracted from one chapter sub-page.
type Extraction struct {
	// Text is the chapter body text of this page.
	Text string

	// TotalPages is the number of sub-pages the chapter declares.
	// Always at least 1.
	TotalPages int
}

// PageExtractor extracts body text and the declared page count from a page.
type PageExtractor interface {
	// Extract parses the page. It must not panic. When the body cannot be
	// located it returns an Extraction whose Text is ExtractFailureText and
	// whose TotalPages is 1, together with an EEXTRACT error.
	Extract(page *RawPage) (*Extraction, error)
}

// ContentLocator finds chapter body text in raw HTML.
// Extractors try locators in order until one matches.
type ContentLocator interface {
	// Locate returns the body text and true, or false if nothing matched.
	Locate(html string) (text string, ok bool)

	// Name returns the locator's identifier (e.g., "readability").
	Name() string
}

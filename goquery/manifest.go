package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novdl"
)

// Default selectors for chapter-list discovery.
const (
	DefaultAuthorSelector  = `.list-group-item a[href^="/u/"] span`
	DefaultChapterSelector = "#s-pages a"
)

// DefaultTitleSuffix matches the trailing chapter number sites append to
// <title>.
var DefaultTitleSuffix = regexp.MustCompile(`\s*-\s*\d+\s*$`)

// Ensure ManifestParser implements novdl.ManifestParser at compile time.
var _ novdl.ManifestParser = (*ManifestParser)(nil)

// ManifestParser reads series metadata and sibling chapter links from the
// chapter page the user opened.
type ManifestParser struct {
	authorSelector  string
	chapterSelector string
	titleSuffix     *regexp.Regexp
	defaultAuthor   string
}

// ManifestOption configures a ManifestParser.
type ManifestOption func(*ManifestParser)

// WithAuthorSelector sets the selector of the element holding the author.
func WithAuthorSelector(selector string) ManifestOption {
	return func(p *ManifestParser) {
		p.authorSelector = selector
	}
}

// WithChapterSelector sets the selector matching chapter links.
func WithChapterSelector(selector string) ManifestOption {
	return func(p *ManifestParser) {
		p.chapterSelector = selector
	}
}

// WithTitleSuffix sets the pattern stripped from the page title.
func WithTitleSuffix(re *regexp.Regexp) ManifestOption {
	return func(p *ManifestParser) {
		p.titleSuffix = re
	}
}

// WithDefaultAuthor sets the author used when the page names none.
func WithDefaultAuthor(author string) ManifestOption {
	return func(p *ManifestParser) {
		p.defaultAuthor = author
	}
}

// NewManifestParser creates a ManifestParser for the default site template.
func NewManifestParser(opts ...ManifestOption) *ManifestParser {
	p := &ManifestParser{
		authorSelector:  DefaultAuthorSelector,
		chapterSelector: DefaultChapterSelector,
		titleSuffix:     DefaultTitleSuffix,
		defaultAuthor:   novdl.UnknownAuthor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads the series from page. The opened chapter is always part of
// the manifest, even when the chapter list does not link it.
func (p *ManifestParser) Parse(page *novdl.RawPage) (*novdl.Series, error) {
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, novdl.Errorf(novdl.EINVALID, "empty chapter page")
	}

	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.URL
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return nil, novdl.Errorf(novdl.EINVALID, "invalid chapter URL: %q", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, novdl.Errorf(novdl.EINVALID, "failed to parse HTML: %v", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if p.titleSuffix != nil {
		title = strings.TrimSpace(p.titleSuffix.ReplaceAllString(title, ""))
	}
	if title == "" {
		return nil, novdl.Errorf(novdl.EINVALID, "chapter page has no title")
	}

	author := strings.TrimSpace(doc.Find(p.authorSelector).First().Text())
	if author == "" {
		author = p.defaultAuthor
	}

	var listed []novdl.ChapterAddress
	doc.Find(p.chapterSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if resolved := resolveChapterURL(base, href); resolved != "" {
			listed = append(listed, novdl.ChapterAddress(resolved))
		}
	})

	current := novdl.ChapterAddress(resolveChapterURL(base, base.String()))

	return &novdl.Series{
		Metadata: novdl.Metadata{Title: title, Author: author},
		Manifest: novdl.NewManifest(current, listed),
	}, nil
}

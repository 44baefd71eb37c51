package mock

import "github.com/fwojciec/novdl"

// Compile-time interface verification.
var (
	_ novdl.PageExtractor  = (*PageExtractor)(nil)
	_ novdl.ContentLocator = (*ContentLocator)(nil)
	_ novdl.ManifestParser = (*ManifestParser)(nil)
)

// PageExtractor is a mock implementation of novdl.PageExtractor.
type PageExtractor struct {
	ExtractFn func(page *novdl.RawPage) (*novdl.Extraction, error)
}

func (e *PageExtractor) Extract(page *novdl.RawPage) (*novdl.Extraction, error) {
	return e.ExtractFn(page)
}

// ContentLocator is a mock implementation of novdl.ContentLocator.
type ContentLocator struct {
	LocateFn func(html string) (string, bool)
	NameFn   func() string
}

func (l *ContentLocator) Locate(html string) (string, bool) {
	return l.LocateFn(html)
}

func (l *ContentLocator) Name() string {
	return l.NameFn()
}

// ManifestParser is a mock implementation of novdl.ManifestParser.
type ManifestParser struct {
	ParseFn func(page *novdl.RawPage) (*novdl.Series, error)
}

func (p *ManifestParser) Parse(page *novdl.RawPage) (*novdl.Series, error) {
	return p.ParseFn(page)
}

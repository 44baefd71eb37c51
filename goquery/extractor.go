// Package goquery implements chapter page parsing with CSS selectors.
package goquery

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novdl"
)

// Default selectors for the supported site template.
const (
	DefaultContentSelector   = "#content"
	DefaultPageCountSelector = "select.form-select option"
)

// Ensure Extractor implements novdl.PageExtractor at compile time.
var _ novdl.PageExtractor = (*Extractor)(nil)

// Extractor reads chapter text and the declared page count from a page.
//
// Content selectors are tried first, in order, against the parsed document.
// Fallback locators run on the raw HTML only when no selector matched.
type Extractor struct {
	contentSelectors  []string
	pageCountSelector string
	pageParam         string
	fallbacks         []novdl.ContentLocator
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithContentSelectors replaces the content selectors.
func WithContentSelectors(selectors ...string) ExtractorOption {
	return func(e *Extractor) {
		e.contentSelectors = selectors
	}
}

// WithPageCountSelector sets the selector matching the <option> elements
// of the page-count control.
func WithPageCountSelector(selector string) ExtractorOption {
	return func(e *Extractor) {
		e.pageCountSelector = selector
	}
}

// WithPageParam sets the query parameter holding the sub-page number.
func WithPageParam(param string) ExtractorOption {
	return func(e *Extractor) {
		e.pageParam = param
	}
}

// WithFallback appends locators tried when no content selector matches.
func WithFallback(locators ...novdl.ContentLocator) ExtractorOption {
	return func(e *Extractor) {
		e.fallbacks = append(e.fallbacks, locators...)
	}
}

// NewExtractor creates an Extractor for the default site template.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		contentSelectors:  []string{DefaultContentSelector},
		pageCountSelector: DefaultPageCountSelector,
		pageParam:         novdl.DefaultPageParam,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses page. When no locator yields text it returns the
// extraction failure text with an EEXTRACT error.
func (e *Extractor) Extract(page *novdl.RawPage) (*novdl.Extraction, error) {
	if page == nil {
		return failed("no page to extract")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return failed("failed to parse HTML: %v", err)
	}

	text, ok := e.locate(doc, page.HTML)
	if !ok {
		return failed("no content found in %s", page.URL)
	}

	return &novdl.Extraction{
		Text:       text,
		TotalPages: e.totalPages(doc, page),
	}, nil
}

func (e *Extractor) locate(doc *goquery.Document, rawHTML string) (string, bool) {
	for _, selector := range e.contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := Text(sel); text != "" {
			return text, true
		}
	}
	for _, l := range e.fallbacks {
		if text, ok := l.Locate(rawHTML); ok && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

// totalPages returns the largest option value of the page-count control.
// Without the control, a chapter is as long as the page being served.
func (e *Extractor) totalPages(doc *goquery.Document, page *novdl.RawPage) int {
	total := 0
	if e.pageCountSelector != "" {
		doc.Find(e.pageCountSelector).Each(func(_ int, opt *goquery.Selection) {
			v, ok := opt.Attr("value")
			if !ok {
				return
			}
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > total {
				total = n
			}
		})
	}
	if total > 0 {
		return total
	}

	served := page.FinalURL
	if served == "" {
		served = page.URL
	}
	return novdl.ServedPage(served, e.pageParam)
}

func failed(format string, args ...any) (*novdl.Extraction, error) {
	return &novdl.Extraction{
		Text:       novdl.ExtractFailureText,
		TotalPages: 1,
	}, novdl.Errorf(novdl.EEXTRACT, format, args...)
}

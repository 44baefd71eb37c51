// Package readability locates chapter text with go-readability's
// article scoring, for pages whose markup no content selector matches.
package readability

import (
	"strings"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/goquery"
	"github.com/go-shiori/go-readability"
)

// Ensure Locator implements novdl.ContentLocator at compile time.
var _ novdl.ContentLocator = (*Locator)(nil)

// Locator wraps go-readability to find the main text of a page.
type Locator struct{}

// NewLocator creates a new Locator.
func NewLocator() *Locator {
	return &Locator{}
}

// Name returns the locator's identifier.
func (l *Locator) Name() string {
	return "readability"
}

// Locate returns the article text readability picks out of rawHTML.
func (l *Locator) Locate(rawHTML string) (string, bool) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", false
	}

	text := goquery.HTMLText(article.Content)
	if text == "" {
		return "", false
	}
	return text, true
}

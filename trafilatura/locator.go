// Package trafilatura locates chapter text with go-trafilatura.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/goquery"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Locator implements novdl.ContentLocator at compile time.
var _ novdl.ContentLocator = (*Locator)(nil)

// Locator wraps go-trafilatura to find the main text of a page.
type Locator struct {
	opts trafilatura.Options
}

// NewLocator creates a new Locator.
func NewLocator() *Locator {
	return &Locator{
		opts: trafilatura.Options{
			EnableFallback: true,
			ExcludeTables:  true,
		},
	}
}

// Name returns the locator's identifier.
func (l *Locator) Name() string {
	return "trafilatura"
}

// Locate returns the main text trafilatura extracts from rawHTML.
func (l *Locator) Locate(rawHTML string) (string, bool) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", false
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), l.opts)
	if err != nil || result == nil {
		return "", false
	}

	text := goquery.InnerText(result.ContentNode)
	if text == "" {
		text = strings.TrimSpace(result.ContentText)
	}
	if text == "" {
		return "", false
	}
	return text, true
}

// Package rod fetches chapter pages with a headless Chrome browser for
// sites that build their content with JavaScript.
package rod

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fwojciec/novdl"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single navigation, including load.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements novdl.Fetcher at compile time.
var _ novdl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Each fetch opens a fresh tab on the managed browser, which is recycled
// after a number of pages.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	closed  atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout        time.Duration
	managerOptions []ManagerOption
}

// WithFetchTimeout sets the per-page navigation timeout.
// Defaults to DefaultFetchTimeout if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithRecycleAfter sets how many pages the browser serves before it is
// replaced with a fresh instance.
func WithRecycleAfter(n int64) Option {
	return func(c *fetcherConfig) {
		c.managerOptions = append(c.managerOptions, WithMaxPages(n))
	}
}

// WithBrowserUserAgent overrides the browser's User-Agent.
func WithBrowserUserAgent(ua string) Option {
	return func(c *fetcherConfig) {
		c.managerOptions = append(c.managerOptions, WithUserAgent(ua))
	}
}

// NewFetcher launches a headless browser and returns a Fetcher using it.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.managerOptions...)
	if err != nil {
		return nil, err
	}

	return &Fetcher{manager: manager, timeout: cfg.timeout}, nil
}

// Fetch navigates to the URL and returns the rendered HTML. FinalURL is
// the address the tab ended up on after redirects.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*novdl.RawPage, error) {
	if f.closed.Load() {
		return nil, novdl.Errorf(novdl.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browser := f.manager.Browser()
	if browser == nil {
		return nil, novdl.Errorf(novdl.EINVALID, "fetcher is closed")
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, wrapContext(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, wrapContext(ctx, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, wrapContext(ctx, err)
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &novdl.RawPage{
		URL:      url,
		FinalURL: finalURL,
		HTML:     html,
	}, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// wrapContext prefers the context's error so callers can recognise
// timeouts and cancellation behind rod's own error values.
func wrapContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

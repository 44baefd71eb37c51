package rod

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 200

// BrowserManager owns the Chrome process behind a Fetcher and replaces it
// after a number of pages. A long crawl renders thousands of chapter pages
// and Chrome's memory baseline only grows.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	maxPages  int64
	userAgent string
	images    bool

	mu       sync.Mutex
	current  *chrome
	rendered atomic.Int64
	closed   atomic.Bool
}

// chrome is one launched browser and the process that hosts it.
type chrome struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (c *chrome) shutdown() error {
	err := c.browser.Close()
	c.launcher.Kill()
	return err
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages one browser renders before it is replaced.
// Defaults to DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.userAgent = ua
	}
}

// WithImages enables image loading, which is off by default since chapter
// pages are read for their text only.
func WithImages(enabled bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.images = enabled
	}
}

// NewBrowserManager launches a headless Chrome and returns its manager.
// The caller must Close it.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}

	c, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = c

	return bm, nil
}

// Browser returns the browser to render the next page with. A browser that
// has rendered maxPages pages is swapped for a fresh one first; if the
// relaunch fails the old one stays in service. Browser returns nil after
// Close.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed.Load() || bm.current == nil {
		return nil
	}
	if bm.rendered.Load() >= bm.maxPages {
		if fresh, err := bm.launch(); err == nil {
			_ = bm.current.shutdown()
			bm.current = fresh
			bm.rendered.Store(0)
		}
	}

	return bm.current.browser
}

// IncrementPageCount records one rendered page.
func (bm *BrowserManager) IncrementPageCount() {
	bm.rendered.Add(1)
}

// Close shuts the browser down. Later calls are no-ops.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	err := bm.current.shutdown()
	bm.current = nil
	return err
}

// LauncherPID returns the Chrome launcher's process ID, or 0 once closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

func (bm *BrowserManager) launch() (*chrome, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
	if !bm.images {
		l = l.Set("blink-settings", "imagesEnabled=false")
	}
	if bm.userAgent != "" {
		l = l.Set("user-agent", bm.userAgent)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &chrome{browser: browser, launcher: l}, nil
}

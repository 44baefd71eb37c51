// Package slog provides logging decorators for novdl's service interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/novdl"
)

// Ensure LoggingFetcher implements novdl.Fetcher.
var _ novdl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   novdl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next novdl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
// Redirects are logged with the address that served the page.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (page *novdl.RawPage, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
		}
		if page != nil {
			attrs = append(attrs, "bytes", len(page.HTML))
			if page.FinalURL != "" && page.FinalURL != url {
				attrs = append(attrs, "final_url", page.FinalURL)
			}
		}
		if err != nil {
			attrs = append(attrs, "err", err)
			f.logger.Warn("fetch", attrs...)
			return
		}
		f.logger.Debug("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

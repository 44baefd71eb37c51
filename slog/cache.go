package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/novdl"
)

// Ensure LoggingCache implements novdl.PageCache.
var _ novdl.PageCache = (*LoggingCache)(nil)

// LoggingCache wraps a PageCache with debug logging of hits and misses.
type LoggingCache struct {
	next   novdl.PageCache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next novdl.PageCache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// FindPage delegates to the wrapped cache and logs the outcome.
func (c *LoggingCache) FindPage(ctx context.Context, address novdl.ChapterAddress, page int) (*novdl.Extraction, error) {
	ext, err := c.next.FindPage(ctx, address, page)
	switch {
	case err == nil:
		c.logger.Debug("cache hit", "address", address, "page", page)
	case novdl.ErrorCode(err) == novdl.ENOTFOUND:
		c.logger.Debug("cache miss", "address", address, "page", page)
	default:
		c.logger.Warn("cache lookup", "address", address, "page", page, "err", err)
	}
	return ext, err
}

// SavePage delegates to the wrapped cache.
func (c *LoggingCache) SavePage(ctx context.Context, address novdl.ChapterAddress, page int, ext *novdl.Extraction) error {
	err := c.next.SavePage(ctx, address, page, ext)
	if err != nil {
		c.logger.Warn("cache store", "address", address, "page", page, "err", err)
	}
	return err
}

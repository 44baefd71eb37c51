package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/novdl"
)

// Compile-time interface verification.
var _ novdl.PageCache = (*PageCache)(nil)

// PageCache implements novdl.PageCache using SQLite.
//
// Rows are keyed by chapter address and page number. A row whose text no
// longer matches its content hash is treated as missing.
type PageCache struct {
	db     *DB
	maxAge time.Duration
	now    func() time.Time
}

// PageCacheOption configures a PageCache.
type PageCacheOption func(*PageCache)

// WithMaxAge makes pages older than d count as missing. Zero keeps pages
// indefinitely.
func WithMaxAge(d time.Duration) PageCacheOption {
	return func(c *PageCache) {
		c.maxAge = d
	}
}

// WithClock overrides the time source used for fetched_at and expiry.
func WithClock(now func() time.Time) PageCacheOption {
	return func(c *PageCache) {
		c.now = now
	}
}

// NewPageCache creates a new PageCache.
func NewPageCache(db *DB, opts ...PageCacheOption) *PageCache {
	c := &PageCache{db: db, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindPage returns the cached extraction for a chapter page.
// Returns ENOTFOUND if the page is not cached, expired or corrupted.
func (c *PageCache) FindPage(ctx context.Context, address novdl.ChapterAddress, page int) (*novdl.Extraction, error) {
	var ext novdl.Extraction
	var hash, fetchedAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT text, total_pages, content_hash, fetched_at
		FROM pages
		WHERE address = ? AND page = ?
	`, string(address), page).Scan(&ext.Text, &ext.TotalPages, &hash, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, novdl.Errorf(novdl.ENOTFOUND, "page not cached")
	}
	if err != nil {
		return nil, err
	}

	if hash != hashContent(ext.Text) {
		return nil, novdl.Errorf(novdl.ENOTFOUND, "cached page is corrupted")
	}

	if c.maxAge > 0 {
		fetched, err := parseRFC3339(fetchedAt, "fetched_at")
		if err != nil {
			return nil, err
		}
		if c.now().Sub(fetched) > c.maxAge {
			return nil, novdl.Errorf(novdl.ENOTFOUND, "cached page expired")
		}
	}

	ext.TotalPages = max(ext.TotalPages, 1)
	return &ext, nil
}

// SavePage stores the extraction for a chapter page, replacing an earlier
// copy.
func (c *PageCache) SavePage(ctx context.Context, address novdl.ChapterAddress, page int, ext *novdl.Extraction) error {
	if address == "" {
		return novdl.Errorf(novdl.EINVALID, "chapter address required")
	}
	if page < 1 {
		return novdl.Errorf(novdl.EINVALID, "page number must be positive")
	}
	if ext == nil {
		return novdl.Errorf(novdl.EINVALID, "extraction required")
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pages (address, page, text, total_pages, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (address, page) DO UPDATE SET
			text = excluded.text,
			total_pages = excluded.total_pages,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
	`, string(address), page, ext.Text, max(ext.TotalPages, 1), hashContent(ext.Text),
		c.now().UTC().Format(time.RFC3339))

	return err
}

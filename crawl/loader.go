package crawl

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/fwojciec/novdl"
)

// Loader defaults.
const (
	// DefaultMaxAttempts is the number of attempts before a page is given up.
	DefaultMaxAttempts = 3
	// DefaultMinTextLength is the length, in characters, a page's text
	// must exceed to count as a real page rather than a soft failure.
	DefaultMinTextLength = 100
)

var _ novdl.PageLoader = (*Loader)(nil)

// Loader fetches and validates one sub-page of a chapter, retrying failed
// attempts after a fixed backoff.
//
// A transport error and a page that fails validation count against the same
// attempt budget. Validation rejects extractor errors, text carrying a
// failure marker, and text of MinTextLength characters or fewer; servers
// answer rate limiting with short pages that still return HTTP 200.
type Loader struct {
	Fetcher   novdl.Fetcher
	Extractor novdl.PageExtractor

	// Limiter defaults to a Pacer with the default delays.
	Limiter novdl.RateLimiter

	// Cache is optional. Hits are returned without network activity and
	// validated pages are written back.
	Cache novdl.PageCache

	Logger *slog.Logger

	MaxAttempts   int
	MinTextLength int
	PageParam     string

	fallback defaultPacer
}

// Load returns the page result for sub-page n of the chapter at address.
// A page that exhausts its attempts is returned with a non-nil Err and
// TotalPages of 1; the error return is only used for cancellation.
func (l *Loader) Load(ctx context.Context, address novdl.ChapterAddress, n int) (*novdl.PageResult, error) {
	if r := l.cached(ctx, address, n); r != nil {
		return r, nil
	}

	maxAttempts := l.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	url := novdl.PageURL(address, n, l.PageParam)
	logger := l.logger()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err)
		}

		ext, err := l.attempt(ctx, url)
		if err == nil {
			l.store(ctx, address, n, ext)
			return &novdl.PageResult{
				Number:     n,
				Text:       ext.Text,
				TotalPages: max(ext.TotalPages, 1),
				Attempts:   attempt,
			}, nil
		}

		// A fetch aborted by cancellation is not a failed attempt.
		if ctx.Err() != nil {
			return nil, canceled(ctx.Err())
		}
		if novdl.ErrorCode(err) == novdl.ECANCELED {
			return nil, err
		}

		if attempt >= maxAttempts {
			logger.Error("page exhausted",
				"url", url,
				"attempts", attempt,
				"err", err,
			)
			return &novdl.PageResult{
				Number:     n,
				TotalPages: 1,
				Attempts:   attempt,
				Err: novdl.WrapError(novdl.EEXHAUSTED, err,
					"page %d failed after %d attempts: %s", n, attempt, novdl.ErrorMessage(err)),
			}, nil
		}

		logger.Warn("retry page",
			"url", url,
			"attempt", attempt+1,
			"err", err,
		)
		if err := l.limiter().Backoff(ctx); err != nil {
			return nil, canceled(err)
		}
	}
}

// attempt performs one fetch and validates the extracted content.
func (l *Loader) attempt(ctx context.Context, url string) (*novdl.Extraction, error) {
	if err := l.limiter().Wait(ctx); err != nil {
		return nil, canceled(err)
	}

	raw, err := l.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, novdl.WrapError(novdl.EFETCH, err, "fetching %s: %v", url, err)
	}

	ext, err := l.Extractor.Extract(raw)
	if err != nil {
		if novdl.ErrorCode(err) == novdl.EINTERNAL {
			return nil, novdl.WrapError(novdl.EEXTRACT, err, "extracting %s: %v", url, err)
		}
		return nil, err
	}
	if ext == nil {
		return nil, novdl.Errorf(novdl.EEXTRACT, "no content extracted from %s", url)
	}

	return ext, l.validate(ext)
}

// validate rejects content that is present but not a real page.
func (l *Loader) validate(ext *novdl.Extraction) error {
	if novdl.ContainsFailureMarker(ext.Text) {
		return novdl.Errorf(novdl.EEXTRACT, "page content carries a failure marker")
	}

	minLen := l.MinTextLength
	if minLen <= 0 {
		minLen = DefaultMinTextLength
	}
	if n := utf8.RuneCountInString(ext.Text); n <= minLen {
		return novdl.Errorf(novdl.EEXTRACT, "page content too short (%d characters)", n)
	}
	return nil
}

func (l *Loader) cached(ctx context.Context, address novdl.ChapterAddress, n int) *novdl.PageResult {
	if l.Cache == nil {
		return nil
	}
	ext, err := l.Cache.FindPage(ctx, address, n)
	if err != nil {
		if novdl.ErrorCode(err) != novdl.ENOTFOUND {
			l.logger().Warn("page cache lookup", "address", address, "page", n, "err", err)
		}
		return nil
	}
	if err := l.validate(ext); err != nil {
		l.logger().Debug("cached page rejected", "address", address, "page", n, "err", err)
		return nil
	}
	return &novdl.PageResult{
		Number:     n,
		Text:       ext.Text,
		TotalPages: max(ext.TotalPages, 1),
		Cached:     true,
	}
}

func (l *Loader) store(ctx context.Context, address novdl.ChapterAddress, n int, ext *novdl.Extraction) {
	if l.Cache == nil {
		return
	}
	if err := l.Cache.SavePage(ctx, address, n, ext); err != nil {
		l.logger().Warn("page cache store", "address", address, "page", n, "err", err)
	}
}

func (l *Loader) limiter() novdl.RateLimiter {
	return l.fallback.or(l.Limiter)
}

func (l *Loader) logger() *slog.Logger {
	return loggerOrDiscard(l.Logger)
}

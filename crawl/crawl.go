// Package crawl downloads a series chapter by chapter.
// It coordinates fetching, validation, retries, pacing and assembly of
// chapter sub-pages into a single document.
//
// All requests are issued strictly one after another. The remote site is a
// shared resource with no published concurrency budget, so nothing in this
// package fetches in parallel.
package crawl

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/fwojciec/novdl"
	"github.com/google/uuid"
)

// Crawler assembles every chapter of a manifest into a SeriesDocument.
type Crawler struct {
	Assembler novdl.ChapterAssembler

	// Limiter defaults to a Pacer with the default delays.
	Limiter novdl.RateLimiter
	Logger  *slog.Logger

	fallback defaultPacer
}

// Crawl assembles the chapters of manifest in order and returns the
// document. Chapters that contain failed pages are included as they are;
// only cancellation stops the crawl early, in which case the partial
// document is returned together with the error.
func (c *Crawler) Crawl(ctx context.Context, meta novdl.Metadata, manifest novdl.Manifest, progress novdl.ProgressFunc) (*novdl.SeriesDocument, error) {
	if len(manifest) == 0 {
		return nil, novdl.Errorf(novdl.EINVALID, "manifest has no chapters")
	}
	chapters := slices.Clone(manifest)

	logger := loggerOrDiscard(c.Logger).With("run", uuid.NewString())
	emit := func(e novdl.ProgressEvent) {
		e.Chapters = len(chapters)
		if progress != nil {
			progress(e)
		}
	}

	doc := &novdl.SeriesDocument{Metadata: meta}
	begin := time.Now()
	logger.Info("crawl started",
		"title", meta.Title,
		"author", meta.Author,
		"chapters", len(chapters),
	)
	emit(novdl.ProgressEvent{Type: novdl.ProgressStarted})

	for i, address := range chapters {
		index := i + 1

		if i > 0 && !lastPageCached(doc) {
			if err := c.limiter().Pace(ctx); err != nil {
				return c.fail(logger, emit, doc, canceled(err))
			}
		}

		emit(novdl.ProgressEvent{
			Type:    novdl.ProgressChapter,
			Chapter: index,
			Address: address,
		})

		ch, err := c.Assembler.Assemble(ctx, index, address, emit)
		if ch != nil {
			doc.Chapters = append(doc.Chapters, ch)
		}
		if err != nil {
			return c.fail(logger, emit, doc, err)
		}

		logger.Info("chapter assembled",
			"chapter", index,
			"address", address,
			"pages", len(ch.Pages),
			"failed", ch.FailedPages(),
		)
	}

	failed := doc.FailedPages()
	logger.Info("crawl completed",
		"chapters", len(doc.Chapters),
		"failed", failed,
		"duration", time.Since(begin),
	)
	emit(novdl.ProgressEvent{
		Type:        novdl.ProgressCompleted,
		Chapter:     len(chapters),
		FailedPages: failed,
	})

	return doc, nil
}

func (c *Crawler) fail(logger *slog.Logger, emit novdl.ProgressFunc, doc *novdl.SeriesDocument, err error) (*novdl.SeriesDocument, error) {
	logger.Error("crawl failed",
		"chapters", len(doc.Chapters),
		"err", err,
	)
	emit(novdl.ProgressEvent{
		Type:        novdl.ProgressFailed,
		Chapter:     len(doc.Chapters),
		FailedPages: doc.FailedPages(),
		Err:         err,
	})
	return doc, err
}

func (c *Crawler) limiter() novdl.RateLimiter {
	return c.fallback.or(c.Limiter)
}

// lastPageCached reports whether the most recent page came from the cache,
// in which case no request needs spacing from the next one.
func lastPageCached(doc *novdl.SeriesDocument) bool {
	if len(doc.Chapters) == 0 {
		return false
	}
	pages := doc.Chapters[len(doc.Chapters)-1].Pages
	return len(pages) > 0 && pages[len(pages)-1].Cached
}

package crawl

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fwojciec/novdl"
)

// DefaultMaxPages bounds the sub-pages read from a single chapter so that a
// page-count control reporting a bogus total cannot run away.
const DefaultMaxPages = 1000

var _ novdl.ChapterAssembler = (*Assembler)(nil)

// Assembler loads the sub-pages of a chapter in ascending order.
//
// The total page count is re-read from every page and the loop ends once the
// page number passes the most recently reported total. A page that exhausts
// its retries ends the chapter early.
type Assembler struct {
	Loader novdl.PageLoader

	// Limiter defaults to a Pacer with the default delays.
	Limiter novdl.RateLimiter
	Logger  *slog.Logger

	MaxPages int

	fallback defaultPacer
}

// Assemble loads every sub-page of the chapter at address.
// index is the chapter's display number.
func (a *Assembler) Assemble(ctx context.Context, index int, address novdl.ChapterAddress, progress novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
	maxPages := a.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := loggerOrDiscard(a.Logger).With("chapter", index)

	doc := &novdl.ChapterDocument{Index: index, Address: address}
	total := 1

	for n := 1; ; n++ {
		r, err := a.Loader.Load(ctx, address, n)
		if err != nil {
			return doc, err
		}
		doc.Append(r)
		total = max(r.TotalPages, 1)

		if progress != nil {
			progress(novdl.ProgressEvent{
				Type:       novdl.ProgressPage,
				Chapter:    index,
				Address:    address,
				Page:       n,
				TotalPages: total,
				Err:        r.Err,
			})
		}

		if r.Failed() {
			logger.Warn("chapter abandoned", "page", n, "err", r.Err)
			return doc, nil
		}
		if n >= total {
			logger.Debug("chapter complete", "pages", n)
			return doc, nil
		}
		if n >= maxPages {
			logger.Warn("page limit reached", "pages", n, "reported", total)
			return doc, nil
		}

		if !r.Cached {
			if err := a.limiter().Pace(ctx); err != nil {
				return doc, canceled(err)
			}
		}
	}
}

func (a *Assembler) limiter() novdl.RateLimiter {
	return a.fallback.or(a.Limiter)
}

// canceled wraps a context error as a terminal ECANCELED error.
func canceled(err error) error {
	if novdl.ErrorCode(err) == novdl.ECANCELED {
		return err
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return novdl.WrapError(novdl.ECANCELED, err, "crawl canceled")
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

package crawl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/novdl"
	"golang.org/x/time/rate"
)

var _ novdl.RateLimiter = (*Pacer)(nil)

// Default pacing intervals.
const (
	// DefaultBackoff is the fixed pause between a failed attempt and its retry.
	DefaultBackoff = 2 * time.Second
	// DefaultPace is the steady-state pause between two loaded pages.
	DefaultPace = 2500 * time.Millisecond
	// DefaultMinInterval is the minimum spacing between any two requests.
	DefaultMinInterval = 1 * time.Second
)

// Pacer implements novdl.RateLimiter with fixed intervals.
// Backoff and Pace sleep for their configured durations; Wait enforces a
// minimum spacing between requests using a token bucket with a burst of 1.
type Pacer struct {
	backoff     time.Duration
	pace        time.Duration
	minInterval time.Duration
	floor       *rate.Limiter
}

// PacerOption configures a Pacer.
type PacerOption func(*Pacer)

// WithBackoff sets the retry backoff. Defaults to DefaultBackoff.
func WithBackoff(d time.Duration) PacerOption {
	return func(p *Pacer) {
		p.backoff = d
	}
}

// WithPace sets the inter-page delay. Defaults to DefaultPace.
func WithPace(d time.Duration) PacerOption {
	return func(p *Pacer) {
		p.pace = d
	}
}

// WithMinInterval sets the minimum spacing between requests.
// Zero or negative disables the floor.
func WithMinInterval(d time.Duration) PacerOption {
	return func(p *Pacer) {
		p.minInterval = d
	}
}

// NewPacer creates a Pacer with the given options.
func NewPacer(opts ...PacerOption) *Pacer {
	p := &Pacer{
		backoff:     DefaultBackoff,
		pace:        DefaultPace,
		minInterval: DefaultMinInterval,
	}
	for _, opt := range opts {
		opt(p)
	}

	limit := rate.Inf
	if p.minInterval > 0 {
		limit = rate.Every(p.minInterval)
	}
	p.floor = rate.NewLimiter(limit, 1)

	return p
}

// Wait blocks until the request floor allows another request.
// A deadline that would expire before the next slot is reported as
// context.DeadlineExceeded.
func (p *Pacer) Wait(ctx context.Context) error {
	err := p.floor.Wait(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Backoff sleeps for the retry backoff interval.
func (p *Pacer) Backoff(ctx context.Context) error {
	return sleep(ctx, p.backoff)
}

// Pace sleeps for the inter-page interval.
func (p *Pacer) Pace(ctx context.Context) error {
	return sleep(ctx, p.pace)
}

// sleep pauses for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// defaultPacer supplies a Pacer with the default delays to components whose
// Limiter is unset.
type defaultPacer struct {
	once  sync.Once
	pacer *Pacer
}

func (d *defaultPacer) or(l novdl.RateLimiter) novdl.RateLimiter {
	if l != nil {
		return l
	}
	d.once.Do(func() { d.pacer = NewPacer() })
	return d.pacer
}

package mock

import (
	"context"

	"github.com/fwojciec/novdl"
)

var _ novdl.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of novdl.RateLimiter.
type RateLimiter struct {
	WaitFn    func(ctx context.Context) error
	BackoffFn func(ctx context.Context) error
	PaceFn    func(ctx context.Context) error
}

func (l *RateLimiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}

func (l *RateLimiter) Backoff(ctx context.Context) error {
	return l.BackoffFn(ctx)
}

func (l *RateLimiter) Pace(ctx context.Context) error {
	return l.PaceFn(ctx)
}

// NoDelay returns a RateLimiter that never waits.
func NoDelay() *RateLimiter {
	nop := func(context.Context) error { return nil }
	return &RateLimiter{WaitFn: nop, BackoffFn: nop, PaceFn: nop}
}

package novdl

import "context"

// RateLimiter paces requests to the remote site.
// Every method blocks and returns an error if the context is canceled.
type RateLimiter interface {
	// Wait blocks until another request may be issued.
	Wait(ctx context.Context) error

	// Backoff pauses between a failed attempt and its retry.
	Backoff(ctx context.Context) error

	// Pace pauses between two successfully loaded pages.
	Pace(ctx context.Context) error
}

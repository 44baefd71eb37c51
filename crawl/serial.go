package crawl

import (
	"context"

	"github.com/fwojciec/novdl"
	"golang.org/x/sync/semaphore"
)

var _ novdl.Fetcher = (*SerialFetcher)(nil)

// SerialFetcher wraps a Fetcher so that at most one request is in flight at
// a time, no matter how many goroutines call Fetch.
type SerialFetcher struct {
	next novdl.Fetcher
	sem  *semaphore.Weighted
}

// NewSerialFetcher creates a SerialFetcher around next.
func NewSerialFetcher(next novdl.Fetcher) *SerialFetcher {
	return &SerialFetcher{
		next: next,
		sem:  semaphore.NewWeighted(1),
	}
}

// Fetch waits for the in-flight request, if any, then delegates.
func (f *SerialFetcher) Fetch(ctx context.Context, url string) (*novdl.RawPage, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *SerialFetcher) Close() error {
	return f.next.Close()
}

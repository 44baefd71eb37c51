package mock

import (
	"context"

	"github.com/fwojciec/novdl"
)

var _ novdl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of novdl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*novdl.RawPage, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*novdl.RawPage, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

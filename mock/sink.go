package mock

import (
	"context"

	"github.com/fwojciec/novdl"
)

// Compile-time interface verification.
var (
	_ novdl.DocumentSink = (*DocumentSink)(nil)
	_ novdl.PageCache    = (*PageCache)(nil)
)

// DocumentSink is a mock implementation of novdl.DocumentSink.
type DocumentSink struct {
	SaveFn func(ctx context.Context, name string, content []byte) error
}

func (s *DocumentSink) Save(ctx context.Context, name string, content []byte) error {
	return s.SaveFn(ctx, name, content)
}

// PageCache is a mock implementation of novdl.PageCache.
type PageCache struct {
	FindPageFn func(ctx context.Context, address novdl.ChapterAddress, page int) (*novdl.Extraction, error)
	SavePageFn func(ctx context.Context, address novdl.ChapterAddress, page int, ext *novdl.Extraction) error
}

func (c *PageCache) FindPage(ctx context.Context, address novdl.ChapterAddress, page int) (*novdl.Extraction, error) {
	return c.FindPageFn(ctx, address, page)
}

func (c *PageCache) SavePage(ctx context.Context, address novdl.ChapterAddress, page int, ext *novdl.Extraction) error {
	return c.SavePageFn(ctx, address, page, ext)
}

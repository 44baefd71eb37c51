package mock

import (
	"context"

	"github.com/fwojciec/novdl"
)

// Compile-time interface verification.
var (
	_ novdl.PageLoader       = (*PageLoader)(nil)
	_ novdl.ChapterAssembler = (*ChapterAssembler)(nil)
)

// PageLoader is a mock implementation of novdl.PageLoader.
type PageLoader struct {
	LoadFn func(ctx context.Context, address novdl.ChapterAddress, page int) (*novdl.PageResult, error)
}

func (l *PageLoader) Load(ctx context.Context, address novdl.ChapterAddress, page int) (*novdl.PageResult, error) {
	return l.LoadFn(ctx, address, page)
}

// ChapterAssembler is a mock implementation of novdl.ChapterAssembler.
type ChapterAssembler struct {
	AssembleFn func(ctx context.Context, index int, address novdl.ChapterAddress, progress novdl.ProgressFunc) (*novdl.ChapterDocument, error)
}

func (a *ChapterAssembler) Assemble(ctx context.Context, index int, address novdl.ChapterAddress, progress novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
	return a.AssembleFn(ctx, index, address, progress)
}

package crawl_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/crawl"
	"github.com/fwojciec/novdl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	meta := novdl.Metadata{Title: "长夜", Author: "某人"}

	t.Run("rejects empty manifest", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{},
			Limiter:   mock.NoDelay(),
		}

		doc, err := c.Crawl(context.Background(), meta, nil, nil)

		require.Error(t, err)
		assert.Nil(t, doc)
		assert.Equal(t, novdl.EINVALID, novdl.ErrorCode(err))
	})

	t.Run("assembles chapters in manifest order", func(t *testing.T) {
		t.Parallel()

		var order []novdl.ChapterAddress
		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, index int, address novdl.ChapterAddress, _ novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					order = append(order, address)
					return &novdl.ChapterDocument{Index: index, Address: address, Pages: []*novdl.PageResult{
						{Number: 1, Text: string(address), TotalPages: 1},
					}}, nil
				},
			},
			Limiter: mock.NoDelay(),
		}
		manifest := novdl.Manifest{"https://x.test/n/3", "https://x.test/n/1", "https://x.test/n/2"}

		doc, err := c.Crawl(context.Background(), meta, manifest, nil)

		require.NoError(t, err)
		assert.Equal(t, []novdl.ChapterAddress(manifest), order)
		require.Len(t, doc.Chapters, 3)
		for i, ch := range doc.Chapters {
			assert.Equal(t, i+1, ch.Index)
			assert.Equal(t, manifest[i], ch.Address)
		}
		assert.Equal(t, meta, doc.Metadata)
	})

	t.Run("single chapter reproduces that chapter with header", func(t *testing.T) {
		t.Parallel()

		chapter := &novdl.ChapterDocument{Index: 1, Address: "https://x.test/n/1", Pages: []*novdl.PageResult{
			{Number: 1, Text: "one", TotalPages: 2},
			{Number: 2, Text: "two", TotalPages: 2},
		}}
		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, _ int, _ novdl.ChapterAddress, _ novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					return chapter, nil
				},
			},
			Limiter: mock.NoDelay(),
		}

		doc, err := c.Crawl(context.Background(), meta, novdl.Manifest{"https://x.test/n/1"}, nil)

		require.NoError(t, err)
		want := "长夜\n作者：某人\n\n" + "\n\n第 1 章\n" + novdl.RenderChapterText(chapter)
		assert.Equal(t, want, novdl.RenderText(doc))
	})

	t.Run("paces between chapters only", func(t *testing.T) {
		t.Parallel()

		var counts countingLimiter
		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, index int, address novdl.ChapterAddress, _ novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					return &novdl.ChapterDocument{Index: index, Address: address, Pages: []*novdl.PageResult{{Number: 1, Text: "x", TotalPages: 1}}}, nil
				},
			},
			Limiter: counts.limiter(),
		}

		_, err := c.Crawl(context.Background(), meta, novdl.Manifest{"a", "b", "c"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, counts.paces)
	})

	t.Run("emits started chapter page and completed events", func(t *testing.T) {
		t.Parallel()

		var events []novdl.ProgressEvent
		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, index int, address novdl.ChapterAddress, progress novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					progress(novdl.ProgressEvent{Type: novdl.ProgressPage, Chapter: index, Page: 1, TotalPages: 1})
					return &novdl.ChapterDocument{Index: index, Address: address, Pages: []*novdl.PageResult{{Number: 1, Text: "x", TotalPages: 1}}}, nil
				},
			},
			Limiter: mock.NoDelay(),
		}

		_, err := c.Crawl(context.Background(), meta, novdl.Manifest{"a", "b"}, func(e novdl.ProgressEvent) {
			events = append(events, e)
		})

		require.NoError(t, err)
		types := make([]novdl.ProgressType, len(events))
		for i, e := range events {
			types[i] = e.Type
			assert.Equal(t, 2, e.Chapters)
		}
		assert.Equal(t, []novdl.ProgressType{
			novdl.ProgressStarted,
			novdl.ProgressChapter, novdl.ProgressPage,
			novdl.ProgressChapter, novdl.ProgressPage,
			novdl.ProgressCompleted,
		}, types)
	})

	t.Run("stops and reports failure on cancellation", func(t *testing.T) {
		t.Parallel()

		var events []novdl.ProgressEvent
		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, index int, address novdl.ChapterAddress, _ novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					doc := &novdl.ChapterDocument{Index: index, Address: address, Pages: []*novdl.PageResult{{Number: 1, Text: "x", TotalPages: 2}}}
					if index == 2 {
						return doc, novdl.WrapError(novdl.ECANCELED, context.Canceled, "crawl canceled")
					}
					return doc, nil
				},
			},
			Limiter: mock.NoDelay(),
		}

		doc, err := c.Crawl(context.Background(), meta, novdl.Manifest{"a", "b", "c"}, func(e novdl.ProgressEvent) {
			events = append(events, e)
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, doc)
		assert.Len(t, doc.Chapters, 2, "partial chapter is kept")
		last := events[len(events)-1]
		assert.Equal(t, novdl.ProgressFailed, last.Type)
		assert.Error(t, last.Err)
	})

	t.Run("does not mutate caller manifest", func(t *testing.T) {
		t.Parallel()

		manifest := novdl.Manifest{"a", "b"}
		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, index int, address novdl.ChapterAddress, _ novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					manifest[0] = "mutated"
					return &novdl.ChapterDocument{Index: index, Address: address}, nil
				},
			},
			Limiter: mock.NoDelay(),
		}

		doc, err := c.Crawl(context.Background(), meta, manifest, nil)

		require.NoError(t, err)
		assert.Equal(t, novdl.ChapterAddress("a"), doc.Chapters[0].Address)
		assert.Equal(t, novdl.ChapterAddress("b"), doc.Chapters[1].Address)
	})

	t.Run("paces with default pacer when limiter is unset", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Assembler: &mock.ChapterAssembler{
				AssembleFn: func(_ context.Context, index int, address novdl.ChapterAddress, _ novdl.ProgressFunc) (*novdl.ChapterDocument, error) {
					return &novdl.ChapterDocument{Index: index, Address: address, Pages: []*novdl.PageResult{
						{Number: 1, Text: "text", TotalPages: 1},
					}}, nil
				},
			},
		}
		manifest := novdl.Manifest{"https://x.test/n/1", "https://x.test/n/2"}

		var doc *novdl.SeriesDocument
		var err error
		assert.NotPanics(t, func() {
			doc, err = c.Crawl(context.Background(), meta, manifest, nil)
		})

		require.NoError(t, err)
		assert.Len(t, doc.Chapters, 2)
	})
}

// Scenario: the first chapter has two good pages and the second chapter's
// only page never validates. The crawl must finish and keep both chapters.
func TestCrawler_FailedChapterDoesNotAbortCrawl(t *testing.T) {
	t.Parallel()

	const chapterA, chapterB = "https://x.test/n/a", "https://x.test/n/b"
	var fetched []string
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*novdl.RawPage, error) {
			fetched = append(fetched, url)
			return &novdl.RawPage{URL: url, FinalURL: url, HTML: url}, nil
		},
	}
	extractor := &mock.PageExtractor{
		ExtractFn: func(raw *novdl.RawPage) (*novdl.Extraction, error) {
			if strings.HasPrefix(raw.URL, chapterB) {
				return &novdl.Extraction{Text: novdl.ExtractFailureText, TotalPages: 1},
					novdl.Errorf(novdl.EEXTRACT, "no content locator matched")
			}
			return &novdl.Extraction{Text: body(raw.URL), TotalPages: 2}, nil
		},
	}
	limiter := mock.NoDelay()
	loader := &crawl.Loader{Fetcher: fetcher, Extractor: extractor, Limiter: limiter}
	c := &crawl.Crawler{
		Assembler: &crawl.Assembler{Loader: loader, Limiter: limiter},
		Limiter:   limiter,
	}

	var last novdl.ProgressEvent
	doc, err := c.Crawl(context.Background(), novdl.Metadata{Title: "t", Author: "a"},
		novdl.Manifest{chapterA, chapterB}, func(e novdl.ProgressEvent) { last = e })

	require.NoError(t, err)
	require.Len(t, doc.Chapters, 2)

	a := doc.Chapters[0]
	require.Len(t, a.Pages, 2)
	assert.Equal(t, body(chapterA), a.Pages[0].Text)
	assert.Equal(t, body(chapterA+"?p=2"), a.Pages[1].Text)
	assert.False(t, a.Failed())

	b := doc.Chapters[1]
	require.Len(t, b.Pages, 1)
	assert.True(t, b.Failed())

	out := novdl.RenderText(doc)
	assert.Contains(t, out, "第 1 章")
	assert.Contains(t, out, "第 2 章")
	chapter2 := out[strings.Index(out, "第 2 章"):]
	assert.True(t, novdl.ContainsFailureMarker(chapter2))
	assert.False(t, novdl.ContainsFailureMarker(out[:strings.Index(out, "第 2 章")]))

	assert.Equal(t, []string{chapterA, chapterA + "?p=2", chapterB, chapterB, chapterB}, fetched)
	assert.Equal(t, novdl.ProgressCompleted, last.Type)
	assert.Equal(t, 1, last.FailedPages)
}

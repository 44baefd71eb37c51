package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/crawl"
	"golang.org/x/sync/errgroup"
)

// Run executes the download command.
func (c *DownloadCmd) Run(deps *Dependencies) error {
	series, err := c.openSeries(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novdl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s / %s: %d chapters\n",
		series.Metadata.Title, series.Metadata.Author, len(series.Manifest))

	doc, crawlErr := c.crawl(deps, series)
	if doc == nil || len(doc.Chapters) == 0 {
		if crawlErr != nil {
			return crawlErr
		}
		return novdl.Errorf(novdl.EINTERNAL, "no chapters downloaded")
	}

	content, ext := c.render(doc)
	name := novdl.Filename(doc.Metadata, ext)

	// A canceled crawl still saves what it has.
	if err := deps.Sink.Save(context.WithoutCancel(deps.Ctx), name, content); err != nil {
		fmt.Fprintf(deps.Stderr, "error saving %s: %v\n", name, err)
		return err
	}

	failed := doc.FailedPages()
	fmt.Fprintf(deps.Stdout, "Saved %s (%d chapters, %s)\n", name, len(doc.Chapters), crawl.FormatBytes(len(content)))
	if failed > 0 {
		fmt.Fprintf(deps.Stdout, "%d pages could not be downloaded and are marked in the document\n", failed)
	}
	if novdl.ErrorCode(crawlErr) == novdl.ECANCELED {
		fmt.Fprintf(deps.Stdout, "Download interrupted after %d of %d chapters\n", len(doc.Chapters), len(series.Manifest))
	}

	return crawlErr
}

// openSeries fetches the chapter page the user named and reads the chapter
// list from it. Nothing else is requested if this fails.
func (c *DownloadCmd) openSeries(deps *Dependencies) (*novdl.Series, error) {
	if err := deps.Limiter.Wait(deps.Ctx); err != nil {
		return nil, err
	}
	page, err := deps.Fetcher.Fetch(deps.Ctx, c.URL)
	if err != nil {
		return nil, novdl.WrapError(novdl.EFETCH, err, "fetching %s: %v", c.URL, err)
	}
	return deps.Parser.Parse(page)
}

// crawl runs the crawler while a second goroutine renders its progress.
func (c *DownloadCmd) crawl(deps *Dependencies, series *novdl.Series) (*novdl.SeriesDocument, error) {
	events := make(chan novdl.ProgressEvent, 64)

	var (
		g        errgroup.Group
		doc      *novdl.SeriesDocument
		crawlErr error
	)

	g.Go(func() error {
		defer close(events)
		doc, crawlErr = deps.Crawler.Crawl(deps.Ctx, series.Metadata, series.Manifest, func(e novdl.ProgressEvent) {
			events <- e
		})
		return nil
	})

	g.Go(func() error {
		display := newProgressDisplay(deps.Stderr, !c.NoProgress)
		for e := range events {
			display.Handle(e)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return doc, err
	}
	return doc, crawlErr
}

func (c *DownloadCmd) render(doc *novdl.SeriesDocument) ([]byte, string) {
	if c.Format == "md" {
		return []byte(novdl.RenderMarkdown(doc)), "md"
	}
	return []byte(novdl.RenderText(doc)), "txt"
}

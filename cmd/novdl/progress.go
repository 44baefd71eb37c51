package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/crawl"
	"github.com/schollz/progressbar/v3"
)

// progressDisplay renders crawl progress either as a progress bar or as
// plain status lines.
type progressDisplay struct {
	w      io.Writer
	bar    *progressbar.ProgressBar
	useBar bool
}

func newProgressDisplay(w io.Writer, useBar bool) *progressDisplay {
	return &progressDisplay{w: w, useBar: useBar}
}

// Handle renders one event. Events arrive from a single goroutine.
func (d *progressDisplay) Handle(e novdl.ProgressEvent) {
	switch e.Type {
	case novdl.ProgressStarted:
		if d.useBar {
			d.bar = newProgressBar(d.w, e.Chapters)
			return
		}
		fmt.Fprintf(d.w, "Downloading %d chapters\n", e.Chapters)

	case novdl.ProgressChapter:
		if d.bar != nil {
			_ = d.bar.Set(e.Chapter - 1)
			d.bar.Describe(fmt.Sprintf("第 %d 章", e.Chapter))
			return
		}
		fmt.Fprintf(d.w, "[%d/%d] %s\n", e.Chapter, e.Chapters, crawl.TruncateURL(string(e.Address), 60))

	case novdl.ProgressPage:
		if e.Err != nil {
			d.println(fmt.Sprintf("第 %d 章 第 %d 页: %s", e.Chapter, e.Page, novdl.ErrorMessage(e.Err)))
			return
		}
		if d.bar != nil {
			d.bar.Describe(fmt.Sprintf("第 %d 章 %d/%d 页", e.Chapter, e.Page, e.TotalPages))
		}

	case novdl.ProgressCompleted:
		if d.bar != nil {
			_ = d.bar.Finish()
			fmt.Fprintln(d.w)
		}
		fmt.Fprintf(d.w, "Finished %d chapters, %d failed pages\n", e.Chapter, e.FailedPages)

	case novdl.ProgressFailed:
		d.println(fmt.Sprintf("Stopped after %d chapters: %s", e.Chapter, novdl.ErrorMessage(e.Err)))
	}
}

// println writes a line without tearing the progress bar.
func (d *progressDisplay) println(line string) {
	if d.bar != nil {
		_ = d.bar.Clear()
	}
	fmt.Fprintln(d.w, line)
	if d.bar != nil {
		_ = d.bar.RenderBlank()
	}
}

func newProgressBar(w io.Writer, chapters int) *progressbar.ProgressBar {
	return progressbar.NewOptions(chapters,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("下载中"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

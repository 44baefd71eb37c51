package novdl

import "context"

// PageResult is the outcome of loading one sub-page of a chapter.
// A nil Err means the page loaded and validated; a non-nil Err means the
// loader gave up on it.
type PageResult struct {
	Number     int
	Text       string
	TotalPages int
	Attempts   int

	// Cached is true when the result came from a PageCache instead of
	// the network.
	Cached bool

	Err error
}

// Failed reports whether the page could not be loaded.
func (r *PageResult) Failed() bool {
	return r.Err != nil
}

// ChapterDocument holds the pages of one chapter in ascending page order.
// Pages are only ever appended.
type ChapterDocument struct {
	// Index is the 1-based chapter number used for display.
	Index   int
	Address ChapterAddress
	Pages   []*PageResult
}

// Append adds the next page to the chapter.
func (c *ChapterDocument) Append(r *PageResult) {
	c.Pages = append(c.Pages, r)
}

// Failed reports whether any page of the chapter failed.
func (c *ChapterDocument) Failed() bool {
	return c.FailedPages() > 0
}

// FailedPages returns the number of failed pages.
func (c *ChapterDocument) FailedPages() int {
	var n int
	for _, p := range c.Pages {
		if p.Failed() {
			n++
		}
	}
	return n
}

// SeriesDocument is the assembled work, chapters in manifest order.
type SeriesDocument struct {
	Metadata Metadata
	Chapters []*ChapterDocument
}

// FailedPages returns the number of failed pages across all chapters.
func (d *SeriesDocument) FailedPages() int {
	var n int
	for _, c := range d.Chapters {
		n += c.FailedPages()
	}
	return n
}

// PageLoader loads one logical page of a chapter, retrying as needed.
type PageLoader interface {
	// Load returns the page result. Exhausted retries are reported through
	// PageResult.Err; the returned error is reserved for terminal
	// conditions such as cancellation.
	Load(ctx context.Context, address ChapterAddress, page int) (*PageResult, error)
}

// ChapterAssembler loads every sub-page of one chapter.
type ChapterAssembler interface {
	// Assemble returns the chapter as far as it could be assembled. The
	// returned error is non-nil only for terminal conditions, in which case
	// the partial document is still returned.
	Assemble(ctx context.Context, index int, address ChapterAddress, progress ProgressFunc) (*ChapterDocument, error)
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressChapter
	ProgressPage
	ProgressCompleted
	ProgressFailed
)

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type ProgressType

	Chapter  int
	Chapters int
	Address  ChapterAddress

	Page       int
	TotalPages int

	// FailedPages is set on ProgressCompleted and ProgressFailed.
	FailedPages int

	Err error
}

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(ProgressEvent)

package novdl

// UnknownAuthor is used when a page names no author.
const UnknownAuthor = "未知作者"

// ChapterAddress is the absolute URL of a chapter's first page.
type ChapterAddress string

// Manifest is the ordered, deduplicated list of chapters to crawl.
// Order defines chapter order in the output document.
type Manifest []ChapterAddress

// NewManifest builds a Manifest from the chapters a page lists.
// Duplicates and empty addresses are dropped, keeping first occurrence.
// If current is not listed, it is prepended.
func NewManifest(current ChapterAddress, listed []ChapterAddress) Manifest {
	seen := make(map[ChapterAddress]bool, len(listed)+1)
	m := make(Manifest, 0, len(listed)+1)
	for _, a := range listed {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		m = append(m, a)
	}
	if current != "" && !seen[current] {
		m = append(Manifest{current}, m...)
	}
	return m
}

// Metadata describes the work being downloaded.
type Metadata struct {
	Title  string
	Author string
}

// Series is what a one-shot parse of a chapter page yields.
type Series struct {
	Metadata Metadata
	Manifest Manifest
}

// ManifestParser reads a series' metadata and chapter list from the
// currently open chapter page.
type ManifestParser interface {
	// Parse returns EINVALID if the page is not a recognizable chapter page.
	Parse(page *RawPage) (*Series, error)
}

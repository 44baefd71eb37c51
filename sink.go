package novdl

import (
	"context"
	"strings"
	"unicode"
)

// DocumentSink stores the finished document.
type DocumentSink interface {
	// Save stores content under name. Implementations must not leave a
	// partially written document behind on failure.
	Save(ctx context.Context, name string, content []byte) error
}

// PageCache remembers validated pages so interrupted downloads can resume.
type PageCache interface {
	// FindPage returns ENOTFOUND if the page is not cached.
	FindPage(ctx context.Context, address ChapterAddress, page int) (*Extraction, error)

	// SavePage stores a validated page, replacing any earlier copy.
	SavePage(ctx context.Context, address ChapterAddress, page int, ext *Extraction) error
}

// Filename returns "{title} - {author}.{ext}" with characters that are
// unsafe in file names replaced by underscores.
func Filename(meta Metadata, ext string) string {
	title := sanitizeName(meta.Title)
	if title == "" {
		title = "untitled"
	}
	name := title
	if author := sanitizeName(meta.Author); author != "" {
		name += " - " + author
	}
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	return name
}

func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.Trim(s, " .")
}

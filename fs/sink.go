// Package fs saves finished documents to the local filesystem.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/novdl"
)

// Ensure Sink implements novdl.DocumentSink at compile time.
var _ novdl.DocumentSink = (*Sink)(nil)

// Sink writes documents as files in a directory.
//
// Content is written to a temporary file next to the target and renamed into
// place, so an interrupted save never leaves a truncated document behind.
type Sink struct {
	dir string
}

// NewSink creates a Sink writing to dir. An empty dir means the working
// directory.
func NewSink(dir string) *Sink {
	if dir == "" {
		dir = "."
	}
	return &Sink{dir: dir}
}

// Path returns where a document called name is written.
func (s *Sink) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes content to the file called name, replacing any earlier file.
func (s *Sink) Save(ctx context.Context, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return novdl.Errorf(novdl.EINVALID, "invalid document name: %q", name)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		return err
	}
	committed = true
	return nil
}

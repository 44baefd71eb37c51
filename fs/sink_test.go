package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_Save(t *testing.T) {
	t.Parallel()

	t.Run("writes content to named file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink := fs.NewSink(dir)

		err := sink.Save(context.Background(), "星海 - 李白.txt", []byte("正文"))

		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dir, "星海 - 李白.txt"))
		require.NoError(t, err)
		assert.Equal(t, "正文", string(got))
	})

	t.Run("creates missing directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out", "novels")
		sink := fs.NewSink(dir)

		require.NoError(t, sink.Save(context.Background(), "a.txt", []byte("x")))

		assert.FileExists(t, filepath.Join(dir, "a.txt"))
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink := fs.NewSink(dir)
		require.NoError(t, sink.Save(context.Background(), "a.txt", []byte("old")))

		require.NoError(t, sink.Save(context.Background(), "a.txt", []byte("new")))

		got, err := os.ReadFile(sink.Path("a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("leaves no temporary files behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink := fs.NewSink(dir)
		require.NoError(t, sink.Save(context.Background(), "a.txt", []byte("x")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a.txt", entries[0].Name())
	})

	t.Run("rejects names with path separators", func(t *testing.T) {
		t.Parallel()

		sink := fs.NewSink(t.TempDir())

		err := sink.Save(context.Background(), "../escape.txt", []byte("x"))

		require.Error(t, err)
		assert.Equal(t, novdl.EINVALID, novdl.ErrorCode(err))
	})

	t.Run("rejects empty name", func(t *testing.T) {
		t.Parallel()

		err := fs.NewSink(t.TempDir()).Save(context.Background(), "", []byte("x"))

		assert.Equal(t, novdl.EINVALID, novdl.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := fs.NewSink(dir).Save(ctx, "a.txt", []byte("x"))

		require.ErrorIs(t, err, context.Canceled)
		assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	})
}

func TestSink_Path(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("out", "a.txt"), fs.NewSink("out").Path("a.txt"))
	assert.Equal(t, "a.txt", fs.NewSink("").Path("a.txt"))
}

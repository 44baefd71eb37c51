package main_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/novdl"
	main "github.com/fwojciec/novdl/cmd/novdl"
	"github.com/fwojciec/novdl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var body = strings.Repeat("夜色渐深，城门口的灯火一盏接一盏地亮了起来。", 8)

// site serves a two-chapter novel: chapter 100 has two pages, chapter 101
// has one. Requests for unknown pages fail.
type site struct {
	mu       sync.Mutex
	requests []string
	broken   map[string]bool
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*novdl.RawPage, error) {
			s.mu.Lock()
			s.requests = append(s.requests, url)
			broken := s.broken[url]
			s.mu.Unlock()

			if broken {
				return nil, errors.New("connection reset")
			}
			html, ok := pages[url]
			if !ok {
				return nil, fmt.Errorf("unexpected request %s", url)
			}
			return &novdl.RawPage{URL: url, FinalURL: url, HTML: html}, nil
		},
		CloseFn: func() error { return nil },
	}
}

func chapterHTML(text string, total int) string {
	var options strings.Builder
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&options, `<option value="%d">%d</option>`, i, i)
	}
	return `<html><head><title>星海彼岸 - 1</title></head><body>
<ul><li class="list-group-item"><a href="/u/7"><span>李白</span></a></li></ul>
<div id="s-pages"><a href="/n/100">第一章</a><a href="/n/101">第二章</a></div>
<select class="form-select">` + options.String() + `</select>
<div id="content">` + text + `</div>
</body></html>`
}

var pages = map[string]string{
	"https://example.com/n/100":     chapterHTML("一之一"+body, 2),
	"https://example.com/n/100?p=2": chapterHTML("一之二"+body, 2),
	"https://example.com/n/101":     chapterHTML("二之一"+body, 1),
}

func run(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := m.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, main.NewMain(), "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "novdl")
	assert.Contains(t, stdout, "--format")
	assert.Contains(t, stdout, "--cache")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, main.NewMain())

	assert.Error(t, err)
}

func TestMain_Run_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, main.NewMain(), "--format", "pdf", "https://example.com/n/100")

	assert.Error(t, err)
}

func TestMain_Run_RejectsUnknownFallback(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, main.NewMain(), "--fallback", "magic", "https://example.com/n/100")

	assert.Error(t, err)
}

func TestMain_Run_Download(t *testing.T) {
	t.Parallel()

	t.Run("writes the whole novel as text", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		s := &site{}
		m := &main.Main{Fetcher: s.fetcher(), Limiter: mock.NoDelay()}

		stdout, stderr, err := run(t, m, "--out", out, "--no-progress", "https://example.com/n/101")

		require.NoError(t, err, stderr)
		assert.Contains(t, stdout, "星海彼岸 / 李白: 2 chapters")
		assert.Contains(t, stderr, "Finished 2 chapters, 0 failed pages")

		got, err := os.ReadFile(filepath.Join(out, "星海彼岸 - 李白.txt"))
		require.NoError(t, err)
		text := string(got)
		assert.True(t, strings.HasPrefix(text, "星海彼岸\n作者：李白\n\n"))
		assert.Contains(t, text, "\n\n第 1 章\n\n第 1 页\n一之一")
		assert.Contains(t, text, "\n第 2 页\n一之二")
		assert.Contains(t, text, "\n\n第 2 章\n\n第 1 页\n二之一")
		assert.Less(t, strings.Index(text, "一之二"), strings.Index(text, "二之一"))

		assert.Equal(t, []string{
			"https://example.com/n/101",
			"https://example.com/n/100",
			"https://example.com/n/100?p=2",
			"https://example.com/n/101",
		}, s.requests)
	})

	t.Run("writes markdown when asked", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		m := &main.Main{Fetcher: (&site{}).fetcher(), Limiter: mock.NoDelay()}

		_, stderr, err := run(t, m, "--out", out, "--no-progress", "--format", "md", "https://example.com/n/100")

		require.NoError(t, err, stderr)
		got, err := os.ReadFile(filepath.Join(out, "星海彼岸 - 李白.md"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(got), "# 星海彼岸"))
	})

	t.Run("marks pages that exhaust their retries and keeps going", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		s := &site{broken: map[string]bool{"https://example.com/n/100?p=2": true}}
		m := &main.Main{Fetcher: s.fetcher(), Limiter: mock.NoDelay()}

		stdout, stderr, err := run(t, m, "--out", out, "--no-progress", "https://example.com/n/100")

		require.NoError(t, err, stderr)
		assert.Contains(t, stdout, "1 pages could not be downloaded")
		assert.Contains(t, stderr, "第 1 章 第 2 页")

		got, err := os.ReadFile(filepath.Join(out, "星海彼岸 - 李白.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(got), "内容获取失败：")
		assert.Contains(t, string(got), "二之一")
	})

	t.Run("resumes from the page cache", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")

		first := &site{}
		_, stderr, err := run(t, &main.Main{Fetcher: first.fetcher(), Limiter: mock.NoDelay()},
			"--out", dir, "--no-progress", "--cache", cachePath, "https://example.com/n/100")
		require.NoError(t, err, stderr)
		require.Len(t, first.requests, 4)

		second := &site{}
		_, stderr, err = run(t, &main.Main{Fetcher: second.fetcher(), Limiter: mock.NoDelay()},
			"--out", dir, "--no-progress", "--cache", cachePath, "https://example.com/n/100")
		require.NoError(t, err, stderr)

		assert.Equal(t, []string{"https://example.com/n/100"}, second.requests)
	})

	t.Run("reports an unparseable start page without crawling", func(t *testing.T) {
		t.Parallel()

		var requests int
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*novdl.RawPage, error) {
				requests++
				return &novdl.RawPage{URL: url, FinalURL: url, HTML: "<html><body></body></html>"}, nil
			},
			CloseFn: func() error { return nil },
		}

		_, stderr, err := run(t, &main.Main{Fetcher: fetcher, Limiter: mock.NoDelay()},
			"--out", t.TempDir(), "--no-progress", "https://example.com/n/100")

		require.Error(t, err)
		assert.Equal(t, novdl.EINVALID, novdl.ErrorCode(err))
		assert.Contains(t, stderr, "error:")
		assert.Equal(t, 1, requests)
	})

	t.Run("reads selectors from a site profile", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		profile := filepath.Join(dir, "site.yaml")
		require.NoError(t, os.WriteFile(profile, []byte("name: test\ndefaultAuthor: 佚名\nauthorSelector: '#nobody'\n"), 0644))

		_, stderr, err := run(t, &main.Main{Fetcher: (&site{}).fetcher(), Limiter: mock.NoDelay()},
			"--out", dir, "--no-progress", "--site", profile, "https://example.com/n/100")

		require.NoError(t, err, stderr)
		assert.FileExists(t, filepath.Join(dir, "星海彼岸 - 佚名.txt"))
	})
}

func TestMain_Run_SavesPartialDocumentOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := &site{}
	fetcher := s.fetcher()
	inner := fetcher.FetchFn
	calls := 0
	fetcher.FetchFn = func(fctx context.Context, url string) (*novdl.RawPage, error) {
		calls++
		if calls == 3 {
			cancel()
			return nil, fctx.Err()
		}
		return inner(fctx, url)
	}

	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := (&main.Main{Fetcher: fetcher, Limiter: mock.NoDelay()}).Run(ctx,
		[]string{"--out", out, "--no-progress", "https://example.com/n/100"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Equal(t, novdl.ECANCELED, novdl.ErrorCode(err))
	assert.Contains(t, stdout.String(), "Download interrupted")

	got, readErr := os.ReadFile(filepath.Join(out, "星海彼岸 - 李白.txt"))
	require.NoError(t, readErr)
	assert.Contains(t, string(got), "一之一")
	assert.NotContains(t, string(got), "二之一")
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/config"
	"github.com/fwojciec/novdl/crawl"
	"github.com/fwojciec/novdl/fs"
	"github.com/fwojciec/novdl/goquery"
	novhttp "github.com/fwojciec/novdl/http"
	"github.com/fwojciec/novdl/readability"
	"github.com/fwojciec/novdl/rod"
	novslog "github.com/fwojciec/novdl/slog"
	"github.com/fwojciec/novdl/sqlite"
	"github.com/fwojciec/novdl/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Fetcher replaces the HTTP or browser fetcher when set.
	Fetcher novdl.Fetcher

	// Limiter replaces the default pacing when set.
	Limiter novdl.RateLimiter
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("novdl"),
		kong.Description("Download a paginated web novel into a single document"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no chapter URL provided")
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	profile, err := loadProfile(cli)
	if err != nil {
		return err
	}

	deps, err := m.wire(ctx, cli, profile, stdout, stderr)
	if err != nil {
		return err
	}
	defer deps.Close()

	cmd := &DownloadCmd{
		URL:        cli.URL,
		Format:     cli.Format,
		NoProgress: cli.NoProgress,
	}
	return cmd.Run(deps)
}

// loadProfile returns the site profile with the command-line fallbacks
// appended.
func loadProfile(cli *CLI) (config.Profile, error) {
	profile := config.DefaultProfile()
	if cli.Site != "" {
		p, err := config.LoadProfile(cli.Site)
		if err != nil {
			return config.Profile{}, fmt.Errorf("loading site profile %q: %w", cli.Site, err)
		}
		profile = *p
	}

	for _, name := range cli.Fallback {
		if !slices.Contains(profile.Fallback, name) {
			profile.Fallback = append(profile.Fallback, name)
		}
	}
	if err := profile.Validate(); err != nil {
		return config.Profile{}, err
	}
	return profile, nil
}

func (m *Main) wire(ctx context.Context, cli *CLI, profile config.Profile, stdout, stderr io.Writer) (*Dependencies, error) {
	logger := newLogger(stderr, cli.Verbose, cli.LogJSON).With("site", profile.Name)

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
		Sink:   novslog.NewLoggingSink(fs.NewSink(cli.Out), logger),
	}

	fetcher, err := m.newFetcher(cli, stderr)
	if err != nil {
		return nil, err
	}
	deps.Fetcher = crawl.NewSerialFetcher(novslog.NewLoggingFetcher(fetcher, logger))

	var cache novdl.PageCache
	if cli.Cache != "" {
		db := sqlite.NewDB(cli.Cache)
		if err := db.Open(); err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to open page cache at %q: %w", cli.Cache, err)
		}
		deps.DB = db
		cache = novslog.NewLoggingCache(sqlite.NewPageCache(db, sqlite.WithMaxAge(cli.CacheMaxAge)), logger)
	}

	deps.Limiter = m.Limiter
	if deps.Limiter == nil {
		deps.Limiter = crawl.NewPacer(
			crawl.WithBackoff(cli.Backoff),
			crawl.WithPace(cli.Pace),
			crawl.WithMinInterval(cli.Interval),
		)
	}

	titleSuffix, err := profile.TitleSuffixPattern()
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Parser = goquery.NewManifestParser(
		goquery.WithAuthorSelector(profile.AuthorSelector),
		goquery.WithChapterSelector(profile.ChapterSelector),
		goquery.WithTitleSuffix(titleSuffix),
		goquery.WithDefaultAuthor(profile.DefaultAuthor),
	)

	extractor := goquery.NewExtractor(
		goquery.WithContentSelectors(profile.ContentSelectors...),
		goquery.WithPageCountSelector(profile.PageCountSelector),
		goquery.WithPageParam(profile.PageParam),
		goquery.WithFallback(locators(profile.Fallback)...),
	)

	loader := &crawl.Loader{
		Fetcher:       deps.Fetcher,
		Extractor:     extractor,
		Limiter:       deps.Limiter,
		Logger:        logger,
		MaxAttempts:   cli.Attempts,
		MinTextLength: cli.MinLength,
		PageParam:     profile.PageParam,
		Cache:         cache,
	}

	deps.Crawler = &crawl.Crawler{
		Assembler: &crawl.Assembler{
			Loader:   loader,
			Limiter:  deps.Limiter,
			Logger:   logger,
			MaxPages: cli.MaxPages,
		},
		Limiter: deps.Limiter,
		Logger:  logger,
	}

	return deps, nil
}

func (m *Main) newFetcher(cli *CLI, stderr io.Writer) (novdl.Fetcher, error) {
	if m.Fetcher != nil {
		return m.Fetcher, nil
	}
	if cli.Browser {
		f, err := rod.NewFetcher(rod.WithFetchTimeout(cli.Timeout))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		return f, nil
	}
	return novhttp.NewFetcher(novhttp.WithTimeout(cli.Timeout)), nil
}

// locators maps validated fallback names to their implementations.
func locators(names []string) []novdl.ContentLocator {
	var out []novdl.ContentLocator
	for _, name := range names {
		switch name {
		case config.FallbackReadability:
			out = append(out, readability.NewLocator())
		case config.FallbackTrafilatura:
			out = append(out, trafilatura.NewLocator())
		}
	}
	return out
}

func newLogger(w io.Writer, verbose, json bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/novdl"
	"github.com/fwojciec/novdl/crawl"
	"github.com/fwojciec/novdl/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Fetcher novdl.Fetcher
	Limiter novdl.RateLimiter
	Parser  novdl.ManifestParser
	Crawler *crawl.Crawler
	Sink    novdl.DocumentSink

	// DB is set when a page cache is in use.
	DB *sqlite.DB
}

// Close releases the fetcher and the cache database.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Fetcher != nil {
		errs = append(errs, d.Fetcher.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL string `arg:"" help:"URL of a chapter page of the novel"`

	Out    string `short:"o" default:"." env:"NOVDL_OUT" help:"Directory to write the document to"`
	Format string `short:"f" enum:"txt,md" default:"txt" env:"NOVDL_FORMAT" help:"Output format (txt, md)"`

	Attempts  int           `default:"3" env:"NOVDL_ATTEMPTS" help:"Attempts per page before it is given up"`
	MinLength int           `name:"min-length" default:"100" env:"NOVDL_MIN_LENGTH" help:"Characters a page must exceed to count as loaded"`
	Backoff   time.Duration `default:"2s" env:"NOVDL_BACKOFF" help:"Delay before retrying a failed page"`
	Pace      time.Duration `default:"2.5s" env:"NOVDL_PACE" help:"Delay between pages and between chapters"`
	Interval  time.Duration `default:"1s" env:"NOVDL_INTERVAL" help:"Minimum interval between any two requests"`
	Timeout   time.Duration `short:"t" default:"15s" env:"NOVDL_TIMEOUT" help:"Timeout per request"`
	MaxPages  int           `name:"max-pages" default:"1000" env:"NOVDL_MAX_PAGES" help:"Most sub-pages read from one chapter"`

	Browser     bool          `short:"b" env:"NOVDL_BROWSER" help:"Render pages with headless Chrome"`
	Cache       string        `env:"NOVDL_CACHE" help:"SQLite page cache; re-runs skip pages already downloaded"`
	CacheMaxAge time.Duration `name:"cache-max-age" env:"NOVDL_CACHE_MAX_AGE" help:"Treat cached pages older than this as missing (0 keeps them)"`
	Fallback    []string      `env:"NOVDL_FALLBACK" help:"Fallback content locators (readability, trafilatura)"`
	Site        string        `short:"s" env:"NOVDL_SITE" help:"YAML site profile overriding the built-in selectors"`

	Verbose    bool `short:"v" env:"NOVDL_VERBOSE" help:"Log every request"`
	LogJSON    bool `name:"log-json" env:"NOVDL_LOG_JSON" help:"Write logs as JSON"`
	NoProgress bool `name:"no-progress" env:"NOVDL_NO_PROGRESS" help:"Print plain status lines instead of a progress bar"`
}

// DownloadCmd downloads a novel starting from one chapter page.
type DownloadCmd struct {
	URL        string
	Format     string
	NoProgress bool
}

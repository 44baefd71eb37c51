package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/novdl"
)

// Ensure LoggingSink implements novdl.DocumentSink.
var _ novdl.DocumentSink = (*LoggingSink)(nil)

// LoggingSink wraps a DocumentSink with logging.
type LoggingSink struct {
	next   novdl.DocumentSink
	logger *slog.Logger
}

// NewLoggingSink creates a new LoggingSink.
func NewLoggingSink(next novdl.DocumentSink, logger *slog.Logger) *LoggingSink {
	return &LoggingSink{next: next, logger: logger}
}

// Save logs the document name and size and delegates to the wrapped sink.
func (s *LoggingSink) Save(ctx context.Context, name string, content []byte) (err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Error("save document",
				"name", name,
				"bytes", len(content),
				"err", err,
			)
			return
		}
		s.logger.Info("save document",
			"name", name,
			"bytes", len(content),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.Save(ctx, name, content)
}

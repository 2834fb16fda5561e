package log

import (
	"io"
	"log/slog"
)

// New creates a structured text logger writing to w.
// Verbose mode enables debug-level output; otherwise only warnings and
// errors are emitted.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewNop creates a logger that discards everything. Intended for tests
// and for components that accept an optional logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

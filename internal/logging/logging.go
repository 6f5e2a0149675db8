// Package logging configures the structured loggers used by standsynth.
//
// Library packages never create loggers themselves: they take a
// *slog.Logger field and fall back to Nop when it is nil. The CLI builds the
// real logger with Setup from flags, configuration or the LOG_LEVEL and
// LOG_FORMAT environment variables.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var nop = slog.New(nopHandler{})

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return nop
}

// OrNop returns l, or the discarding logger when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return nop
	}
	return l
}

// ParseLevel maps a level name to a slog.Level. Unknown or empty names
// map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a logger writing to w. format "json" selects the JSON
// handler; anything else gives the text handler. A nil w writes to stderr.
func Setup(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Package logger builds slog loggers from log settings. It does no I/O
// itself, the caller picks where records go.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/Subaru-PFS/qadb/pkg/config"
)

// New creates a new slog.Logger writing to w. It respects the logging
// level and format from the config. Unknown levels default to Info,
// unknown formats to JSON.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	return slog.New(NewHandler(w, cfg))
}

// NewHandler creates the slog.Handler behind New.
func NewHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	switch strings.ToLower(cfg.Format) {
	case "text", "tint":
		// tint is plain text until colored output is needed
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// ParseLevel converts a string log level to slog.Level.
// Valid levels: "debug", "info", "warn", "error" (case-insensitive).
// Invalid levels default to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

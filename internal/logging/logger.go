// Package logging provides structured logging for forklaunch.
//
// Parent and child share the inherited stderr, so every logger built here
// can be tagged with the branch and pid that wrote each record.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// NewLoggerWithWriter creates a structured logger on w with the specified
// format and level.
// Format should be "json" or "text"; anything else falls back to json.
// Level should be "debug", "info", "warn", or "error"; verbose forces debug.
func NewLoggerWithWriter(w io.Writer, format, level string, verbose bool) *slog.Logger {
	logLevel := parseLevel(level)
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// WithBranch tags logger with the fork branch ("parent" or "child") and pid.
func WithBranch(logger *slog.Logger, cloned bool, pid int) *slog.Logger {
	branch := "parent"
	if cloned {
		branch = "child"
	}
	return logger.With("branch", branch, "pid", pid)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

// Package util holds small cross-cutting helpers shared by the engine's
// packages; today that's just structured logging setup.
package util

import (
	"io"
	"log/slog"
)

// LogLevel selects the minimum severity NewLogger emits, configured from
// .mpath/config.yaml or the equivalent CLI flag.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat selects the slog handler NewLogger builds: JSON lines for piping
// into log aggregators, or human-readable text for a terminal.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LoggerConfig configures the root logger the CLI builds once per
// invocation and threads into the builder, path engine, watcher, and
// builtin loader as a component-scoped child.
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// NewLogger builds the root *slog.Logger for a config. Callers that want to
// tag a subsystem's log lines should call Component on the result rather
// than build a second root logger.
func NewLogger(config LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	return slog.New(handler)
}

// Component returns a logger derived from root that tags every record with
// the subsystem emitting it ("builder", "pathengine", "watch", "builtin"),
// so one JSON-lines log stream can be filtered by component without each
// subsystem building its own handler.
func Component(root *slog.Logger, name string) *slog.Logger {
	if root == nil {
		root = slog.Default()
	}
	return root.With("component", name)
}

func parseLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

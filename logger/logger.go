// ABOUTME: This file provides the slog-based JSON logger shared by all pipeline stages
// ABOUTME: Emits lowercase level names and a pre-bound service attribute
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates the pipeline logger writing JSON to stdout.
func New(serviceName string) *slog.Logger {
	return NewWithWriter(serviceName, os.Stdout, slog.LevelInfo)
}

// NewWithWriter creates a logger with an explicit sink and level (used by tests).
func NewWithWriter(serviceName string, w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.Attr{Key: "level", Value: slog.StringValue(strings.ToLower(lvl.String()))}
				}
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(w, options)
	return slog.New(handler).With("service", serviceName)
}

// Discard returns a logger that drops everything (used by tests).
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

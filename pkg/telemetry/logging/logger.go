// Package logging builds structured slog loggers from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output format.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
	// FormatText emits logfmt-style key=value lines.
	FormatText Format = "text"
)

// Config configures logger construction.
type Config struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string

	// Format is the output format: "json" or "text".
	Format string

	// AddSource includes file:line in log records.
	AddSource bool

	// Writer is the output writer (defaults to os.Stderr).
	Writer io.Writer
}

// New creates a structured logger from the configuration.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch Format(strings.ToLower(cfg.Format)) {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, opts)
	case FormatText, "":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or text)", cfg.Format)
	}

	return slog.New(handler), nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", level)
	}
}

// Component returns a child logger tagged with a component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

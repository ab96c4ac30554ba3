// Package logging builds slog loggers for long-running commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects the handler used for output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds the logging configuration.
type Config struct {
	Level  slog.Level
	Format Format
}

// DefaultConfig logs info and above as text.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Format: FormatText}
}

// ParseConfig builds a Config from the level and format names used in the
// config file. Empty values keep the defaults.
func ParseConfig(level, format string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
	case "debug":
		cfg.Level = slog.LevelDebug
	case "info":
		cfg.Level = slog.LevelInfo
	case "warn", "warning":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	default:
		return Config{}, fmt.Errorf("unknown log level %q", level)
	}
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case "":
	case FormatText:
		cfg.Format = FormatText
	case FormatJSON:
		cfg.Format = FormatJSON
	default:
		return Config{}, fmt.Errorf("unknown log format %q", format)
	}
	return cfg, nil
}

// New returns a logger writing to w.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

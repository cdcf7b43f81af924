package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cruciblehq/cdc/internal/paths"
)

// Logging configuration.
type Config struct {
	Level   string // "debug", "info", "warn" or "error".
	Format  string // "text" or "json".
	Debug   bool   // Forces the debug level.
	Quiet   bool   // Forces the warn level unless Debug is set.
	Verbose bool   // Adds source locations to records.
	File    string // Log file appended to. Empty logs to the stream only.
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Builds a logger writing to stream and, when configured, to the log file.
//
// The returned closer releases the log file. A log file that cannot be
// opened is reported through the returned logger, which then writes to
// stream alone.
func Setup(cfg Config, stream io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: Level(cfg), AddSource: cfg.Verbose}

	if cfg.File == "" {
		return slog.New(newHandler(cfg.Format, stream, opts)), nopCloser{}
	}

	f, err := openFile(cfg.File)
	if err != nil {
		logger := slog.New(newHandler(cfg.Format, stream, opts))
		logger.Warn("failed to open log file", "path", cfg.File, "error", err)
		return logger, nopCloser{}
	}

	w := io.MultiWriter(stream, f)
	return slog.New(newHandler(cfg.Format, w, opts)), f
}

// Resolves the effective level of cfg.
func Level(cfg Config) slog.Level {
	switch {
	case cfg.Debug:
		return slog.LevelDebug
	case cfg.Quiet:
		return slog.LevelWarn
	}
	return ParseLevel(cfg.Level)
}

// Converts a level name to a [slog.Level]. Unknown names map to info.
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

// Returns a logger tagged with a component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With("component", name)
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func openFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, paths.DefaultFileMode)
}

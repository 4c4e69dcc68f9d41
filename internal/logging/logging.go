// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// KeyComponent is the log field naming the emitting component.
const KeyComponent = "component"

// Options controls the log handler built by Init.
type Options struct {
	// Format is "json" or "text" (default "text").
	Format string
	// Level is "debug", "info", "warn" or "error" (default "info").
	Level string
	// File, if set, receives the log output in addition to stderr.
	// The file is rotated by size.
	File string
	// MaxSizeMB is the rotation size for File.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// Init installs the default logger. It returns a closer for the log file,
// which is a no-op when no file is configured.
func Init(opts Options) io.Closer {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotator)
		closer = rotator
	}

	slog.SetDefault(slog.New(NewHandler(out, opts.Format, opts.Level)))
	return closer
}

// NewHandler builds a text or JSON handler writing to w at the given level.
func NewHandler(w io.Writer, format, level string) slog.Handler {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.NewTextHandler(w, handlerOpts)
}

// L returns a logger tagged with the given component name.
func L(component string) *slog.Logger {
	return slog.Default().With(slog.String(KeyComponent, component))
}

// ParseLevel maps a level name to a slog.Level, defaulting to Info.
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

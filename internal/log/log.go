// Package log provides structured logging for facelight.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Options controls where and how the global logger writes.
type Options struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string

	// File, when set, receives a copy of every record. The file is rotated
	// by size and old copies are compressed.
	File string

	// Output overrides stdout. Used by tests.
	Output io.Writer
}

// Init initializes the global logger with the specified level.
// Valid levels: "debug", "info", "warn", "error"
func Init(level string) {
	InitWithOptions(Options{Level: level})
}

// InitWithOptions initializes the global logger. Only the first call has
// any effect.
func InitWithOptions(o Options) {
	once.Do(func() {
		opts := &slog.HandlerOptions{
			Level: ParseLevel(o.Level),
		}

		var out io.Writer = os.Stdout
		if o.Output != nil {
			out = o.Output
		}
		if o.File != "" {
			out = io.MultiWriter(out, &lumberjack.Logger{
				Filename:   o.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    50,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}

		// Use JSON in production, text in development
		if os.Getenv("GO_ENV") == "production" {
			logger = slog.New(slog.NewJSONHandler(out, opts))
		} else {
			logger = slog.New(slog.NewTextHandler(out, opts))
		}

		slog.SetDefault(logger)
	})
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger instance.
func L() *slog.Logger {
	Init("info") // no-op once initialized
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

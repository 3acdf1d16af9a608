// Package logger provides a centralized slog-based logger with level and format control.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poruru-code/taskgen/internal/config"
)

// Init initializes the global logger based on environment variables.
// Priority: TASKGEN_LOG_LEVEL > LOG_LEVEL > Default ("info")
// TASKGEN_LOG_FORMAT: text, json (default: text)
func Init() {
	slog.SetDefault(New(os.Stderr, os.Getenv))
}

// New builds a logger writing to w, reading its settings through getenv.
func New(w io.Writer, getenv func(string) string) *slog.Logger {
	levelStr := getenv("TASKGEN_LOG_LEVEL")
	if levelStr == "" {
		levelStr = getenv("LOG_LEVEL")
	}
	formatStr := getenv("TASKGEN_LOG_FORMAT")
	if formatStr == "" {
		formatStr = config.DefaultLogFormat
	}

	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}
	var handler slog.Handler
	if strings.ToLower(formatStr) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		if s == "" {
			return parseLevel(config.DefaultLogLevel)
		}
		return slog.LevelInfo
	}
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a logger writing to stdout.
func New(lvl string, addSource bool, environment string) *slog.Logger {
	return NewWriter(os.Stdout, lvl, addSource, environment)
}

// NewWriter returns a logger writing to w, tagged with the environment.
func NewWriter(w io.Writer, lvl string, addSource bool, environment string) *slog.Logger {
	level := parseLevel(lvl)

	var handler slog.Handler

	switch strings.ToLower(environment) {
	case "prod":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: addSource,
		})
	case "staging":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: addSource,
		})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  addSource,
			TimeFormat: time.TimeOnly,
		})
	}

	return slog.New(handler).With(
		slog.String("environment", environment),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Setup installs the default logger for one run and returns it tagged with a
// fresh run_id. Logs always go to w (stderr); stdout is reserved for results.
func Setup(w io.Writer, level, format string) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler).With("run_id", uuid.NewString())
	slog.SetDefault(l)
	return l
}

func WithComponent(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

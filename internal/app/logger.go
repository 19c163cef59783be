package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger a single App instance owns. Nothing is
// installed globally, so parallel apps (and the test harness) each keep
// their own output stream.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

// parseLevel maps the CLI level names onto slog levels. cli.Parse rejects
// unknown names before they reach here; fall back to info anyway.
func parseLevel(s string) slog.Level {
	switch s {
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

package app

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. Records are
// written to every writer in outW.
func newLogger(levelStr, formatStr string, outW ...io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	handlers := make([]slog.Handler, 0, len(outW))
	for _, w := range outW {
		if formatStr == "json" {
			handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, handlerOpts))
		}
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

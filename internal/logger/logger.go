package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger on stdout. Debug records are kept in dev or when level is "debug".
func New(env, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

func NewWithWriter(w io.Writer, env, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if env == "dev" {
		lvl = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h).With("service", "electravolt")
}

package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New constructs the service logger. APP_ENV=dev|local switches to colored text output,
// everything else logs JSON to stdout.
func New() *slog.Logger {
	return build(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

func build(env, level string) *slog.Logger {
	lvl := parseLevel(level)
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
		})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(handler).With("service", "flat-price")
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
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

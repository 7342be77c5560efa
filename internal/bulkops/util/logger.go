package util

import (
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

func InitLogger() {
	InitLoggerWithLevel("info")
}

// InitLoggerWithLevel installs a JSON logger at the given level
// (debug, info, warn, error).
func InitLoggerWithLevel(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func GetLogger() *slog.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}

func parseLevel(level string) slog.Level {
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

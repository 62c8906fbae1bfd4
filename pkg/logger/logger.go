package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// New returns the worker's structured logger. Verbose in local/dev, info
// elsewhere. No business logic should depend on logging implementation
// details.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", "leadsync-worker")
}

// ShutdownFlush is a placeholder for future log flushing (if a buffered logger is used).
func ShutdownFlush(_ context.Context, _ time.Duration) error { return nil }

package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output keeps log pipelines happy;
// tests construct their own discard loggers.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

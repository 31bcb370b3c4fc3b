// Package log configures the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(logLevel string) slog.Level {
	switch logLevel {
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

// Setup installs the default logger: text on stderr and, when logFile is set, JSON lines in that file.
// The returned function closes the log file.
func Setup(logLevel, logFile string) func() error {
	level := ParseLevel(logLevel)
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if logFile == "" {
		slog.SetDefault(slog.New(stderrHandler))

		return func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		slog.SetDefault(slog.New(stderrHandler))
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)

		return func() error { return nil }
	}

	slog.SetDefault(NewFanout(os.Stderr, file, level))

	return file.Close
}

// NewFanout builds a logger writing text to console and JSON to file.
func NewFanout(console, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}

// Package logging builds the slog logger the CLI hands to the engine.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Options select the handler. Level is DEBUG, INFO, WARN or ERROR; Format
// is "text" or "json".
type Options struct {
	Level  string
	Format string
}

// New returns a configured *slog.Logger writing to stderr.
func New(opts Options) *slog.Logger {
	h := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, h))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package logging builds the process slog.Logger, optionally teeing output to a
// size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger writing to stderr and, when cfg.File is set, to a rotated
// log file. The returned closer releases the file and is never nil.
func New(cfg *Config) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stderr, rotator)
		closer = rotator
	}

	return slog.New(NewHandler(out, cfg)), closer
}

// NewHandler creates the slog handler for cfg writing to w.
func NewHandler(w io.Writer, cfg *Config) slog.Handler {
	level, _ := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: slog.Level(level)}

	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

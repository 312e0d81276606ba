package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger opens <dataDir>/debug.log and returns a logger writing to it.
// The terminal belongs to the UI, so nothing is logged to stdout. Debug
// forces the debug level.
func NewLogger(dataDir, level string, debug bool) (zerolog.Logger, io.Closer, error) {
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - log lines may quote conversation content
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	lvl := parseLevel(level)
	if debug {
		lvl = zerolog.DebugLevel
	}

	logger := zerolog.New(f).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "nailchat").
		Logger()
	logger.Info().Str("level", lvl.String()).Str("path", logPath).Msg("logging started")

	return logger, f, nil
}

// NewConsoleLogger writes human-readable output to stderr, for CLI subcommands
func NewConsoleLogger(level string, debug bool) zerolog.Logger {
	lvl := parseLevel(level)
	if debug {
		lvl = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

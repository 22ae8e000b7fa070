// Package logging configures zerolog for the two ways gamelib runs: the TUI,
// which owns the terminal and therefore logs to a file, and the one-shot
// commands, which log human-readable lines to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}

// New builds a timestamped logger on w and installs it as the global logger.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	l := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = l
	return l
}

// Console logs to stderr through a ConsoleWriter.
func Console(level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return New(w, lvl), nil
}

// File appends JSON lines to path, creating its directory. The returned
// closer must be closed when the program exits.
func File(path, level string) (zerolog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, lvl), f, nil
}

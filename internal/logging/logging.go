// Package logging configures zerolog for condanest: human-readable console
// output plus an append-only log file capturing every backend command line
// and its captured stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultLogFile returns the default command log path inside the data dir,
// creating the directory if needed.
func DefaultLogFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".condanest")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dataDir, "commands.log"), nil
}

// New opens the log file for appending and returns a logger writing JSON
// lines to it. When verbose is set, a console writer on stderr is added.
// The returned closer must be closed on shutdown.
func New(logFile string, verbose bool) (zerolog.Logger, io.Closer, error) {
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	var w io.Writer = f
	if verbose {
		console := zerolog.ConsoleWriter{Out: os.Stderr}
		w = zerolog.MultiLevelWriter(f, console)
	}

	logger := zerolog.New(w).With().Timestamp().Logger()
	return logger, f, nil
}

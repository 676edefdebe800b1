// Package logging configures the global zerolog logger. Console output in
// sysup stays plain fmt-formatted text; zerolog writes the durable record
// to the state-dir log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at the given log file. Verbose enables
// debug-level entries. Failure to open the log file is not fatal: sysup
// still works, it just loses the persistent log.
func Setup(logFile string, verbose bool) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return nil
}

// Component returns a logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

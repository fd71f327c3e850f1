// Package logger holds the process-wide structured logger. Library code logs through Log, which is a no-op until
// Init is called, so tests and embedding programs stay silent by default.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Log is the shared logger. It is never nil.
var Log = zap.NewNop()

// Init replaces Log with a production or development zap logger at the given level.
//
// Parameters:
//   - development: true for the human-readable development encoder, false for JSON output
//   - level: a zap level name such as "debug", "info", "warn", or "error"; empty means info
//
// Returns:
//   - error: error if the level is unknown or the logger cannot be built
func Init(development bool, level string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: build: %w", err)
	}
	Log = l
	return nil
}

// Sync flushes any buffered log entries. Errors are ignored since stderr sync commonly fails on terminals.
func Sync() {
	_ = Log.Sync()
}

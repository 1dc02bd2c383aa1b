// Package build provides the logging backend shared by every subsystem,
// following the same package-level btclog.Logger + UseLogger idiom used
// throughout the reference daemon (see contractcourt and htlcswitch call
// sites for the pattern this generalizes).
package build

import (
	"os"

	"github.com/btcsuite/btclog"
)

// backend is the single log backend the process writes through. Every
// subsystem logger obtained via NewSubLogger multiplexes into it.
var backend = btclog.NewBackend(os.Stdout)

// NewSubLogger creates a logger for the named subsystem at the given level.
// cmd/escrowd calls this once per package during startup and hands the
// result to that package's UseLogger function.
func NewSubLogger(subsystem string, level btclog.Level) btclog.Logger {
	logger := backend.Logger(subsystem)
	logger.SetLevel(level)
	return logger
}

// ParseLevel maps a config string ("trace", "debug", "info", ...) to a
// btclog.Level, defaulting to Info on an unrecognized value.
func ParseLevel(s string) btclog.Level {
	lvl, ok := btclog.LevelFromString(s)
	if !ok {
		return btclog.LevelInfo
	}
	return lvl
}

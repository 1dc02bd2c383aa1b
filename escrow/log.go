package escrow

import "github.com/btcsuite/btclog"

// log is the package-level logger used by Machine; callers wire in a real
// subsystem logger via UseLogger during startup, matching the per-package
// btclog.Logger idiom used throughout the reference daemon's subsystems.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}

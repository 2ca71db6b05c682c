package revert

import (
	"github.com/btcsuite/btclog"
	"github.com/dlc-coordinator/coordinator/internal/build"
)

var log btclog.Logger = build.NewSubLogger("RVRT")

// UseLogger sets the package-wide logger used by this subsystem.
func UseLogger(logger btclog.Logger) {
	log = logger
}

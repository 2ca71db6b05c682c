package trading

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

// NextExpiryForNetwork returns the next standard contract roll time for
// params, computed purely from now. Mainnet and testnet contracts roll
// weekly, on Sunday 00:00 UTC; regtest and simnet roll hourly so
// local/e2e testing doesn't need to wait a week for a contract to mature.
func NextExpiryForNetwork(now time.Time, params *chaincfg.Params) time.Time {
	now = now.UTC()

	if params.Name == chaincfg.RegressionNetParams.Name || params.Name == chaincfg.SimNetParams.Name {
		next := now.Truncate(time.Hour).Add(time.Hour)
		return next
	}

	daysUntilSunday := (7 - int(now.Weekday())) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, daysUntilSunday)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

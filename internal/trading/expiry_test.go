package trading

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestNextExpiryForNetworkMainnetRollsWeeklyOnSunday(t *testing.T) {
	// A Wednesday.
	now := time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)
	next := NextExpiryForNetwork(now, &chaincfg.MainNetParams)

	require.Equal(t, time.Sunday, next.Weekday())
	require.True(t, next.After(now))
	require.Equal(t, 0, next.Hour())
	require.Equal(t, 0, next.Minute())
}

func TestNextExpiryForNetworkTestnetAlsoRollsWeekly(t *testing.T) {
	now := time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)
	next := NextExpiryForNetwork(now, &chaincfg.TestNet3Params)

	require.Equal(t, time.Sunday, next.Weekday())
	require.True(t, next.After(now))
}

func TestNextExpiryForNetworkRegtestRollsHourly(t *testing.T) {
	now := time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)
	next := NextExpiryForNetwork(now, &chaincfg.RegressionNetParams)

	require.Equal(t, time.Date(2026, time.March, 4, 16, 0, 0, 0, time.UTC), next)
}

func TestNextExpiryForNetworkSimnetRollsHourly(t *testing.T) {
	now := time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)
	next := NextExpiryForNetwork(now, &chaincfg.SimNetParams)

	require.Equal(t, time.Date(2026, time.March, 4, 16, 0, 0, 0, time.UTC), next)
}

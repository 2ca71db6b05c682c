package coinselect

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/dlc-coordinator/coordinator/internal/reservation"
	"github.com/stretchr/testify/require"
)

func cand(idx uint32, value btcutil.Amount) Candidate {
	return Candidate{
		OutPoint: wire.OutPoint{Hash: chainhash.Hash{}, Index: idx},
		Value:    value,
		Weight:   272, // a typical P2WPKH input
	}
}

func TestSelectExactMatch(t *testing.T) {
	// 100_121 covers the 100_000 target plus the fee of a one-input
	// funding tx at 1 sat/vB: ceil((212+272)/4) = 121.
	candidates := []Candidate{cand(0, 100_121), cand(1, 50_000)}
	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}

	res, err := Select(candidates, target, nil, false)
	require.NoError(t, err)
	require.Len(t, res.Selected, 1)
	require.Equal(t, btcutil.Amount(100_121), res.Selected[0].Value)
}

func TestSelectNeedsCombination(t *testing.T) {
	candidates := []Candidate{cand(0, 60_000), cand(1, 60_000)}
	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}

	res, err := Select(candidates, target, nil, false)
	require.NoError(t, err)
	require.Len(t, res.Selected, 2)
}

func TestSelectExhausted(t *testing.T) {
	candidates := []Candidate{cand(0, 1_000)}
	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}

	_, err := Select(candidates, target, nil, false)
	require.ErrorIs(t, err, ErrCoinSelectionExhausted)
}

func TestSelectChangeBelowThresholdIsAbsorbedIntoFee(t *testing.T) {
	// One input with only a tiny bit more than the target plus fee: the
	// excess should be too small to justify a change output.
	candidates := []Candidate{cand(0, 100_300)}
	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}

	res, err := Select(candidates, target, nil, false)
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(0), res.ChangeSats)
}

func TestSelectLargeExcessProducesChange(t *testing.T) {
	candidates := []Candidate{cand(0, 500_000)}
	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}

	res, err := Select(candidates, target, nil, false)
	require.NoError(t, err)
	require.Greater(t, int64(res.ChangeSats), int64(0))
}

func TestSelectSkipsReservedCandidates(t *testing.T) {
	store := reservation.NewStore()
	candidates := []Candidate{cand(0, 100_000), cand(1, 100_000)}

	require.True(t, store.Reserve([]wire.OutPoint{candidates[0].OutPoint}))

	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}
	res, err := Select(candidates, target, store, false)
	require.NoError(t, err)
	require.Equal(t, candidates[1].OutPoint, res.Selected[0].OutPoint)
}

func TestSelectWithLockReservesOutpoints(t *testing.T) {
	store := reservation.NewStore()
	candidates := []Candidate{cand(0, 100_000)}
	target := Target{Value: 100_000, FeeRateSatPerVByte: 1}

	res, err := Select(candidates, target, store, true)
	require.NoError(t, err)
	require.True(t, store.IsReserved(res.Selected[0].OutPoint))
}

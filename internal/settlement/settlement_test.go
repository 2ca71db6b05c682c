package settlement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Mirrors calculate_transaction_fee_for_dlc_channel_transactions in
// collaborative_revert.rs.
func TestDlcChannelTxFees(t *testing.T) {
	fee, err := DlcChannelTxFees(200_000, -4047, 65_450, 85_673, 18_690, 18_690)
	require.NoError(t, err)
	require.Equal(t, int64(11_497), fee)
}

// Mirrors ensure_overflow_being_caught in collaborative_revert.rs.
func TestDlcChannelTxFeesUnderflow(t *testing.T) {
	_, err := DlcChannelTxFees(200_000, -100, 65_383, 88_330, 180_362, 180_362)
	require.ErrorIs(t, err, ErrFeeUnderflow)
}

// DlcChannelTxFees's parameter order follows the original exactly:
// (initial_funding, pnl, inbound_capacity, outbound_capacity, trader_margin,
// coordinator_margin). Every argument here is distinct, so passing any two
// of them in swapped positions changes the result:
// 1_000 - 100 - 200 - (300 - 50) - (300 + 50) = 100.
func TestDlcChannelTxFeesParameterOrder(t *testing.T) {
	fee, err := DlcChannelTxFees(1_000, 50, 100, 200, 300, 300)
	require.NoError(t, err)
	require.Equal(t, int64(100), fee)
}

func TestCoordinatorPnLIsNegationOfTraderPnL(t *testing.T) {
	require.Equal(t, int64(-500), CoordinatorPnL(500))
	require.Equal(t, int64(500), CoordinatorPnL(-500))
}

func TestSettlementAmount(t *testing.T) {
	require.Equal(t, int64(1_500), SettlementAmount(1_000, 500))
	require.Equal(t, int64(500), SettlementAmount(1_000, -500))
}

func TestComputeRevertSplitSumsToFundValue(t *testing.T) {
	split, err := ComputeRevertSplit(200_000, 10_000, 20_000, 2_000, 1)
	require.NoError(t, err)

	// coordinatorAmount and traderAmount are constructed to sum to
	// fundValue before the close-tx fee is deducted from each half, and
	// the fee is even here so the two ceil(fee/2) deductions exactly
	// cancel the onchain fee added back in.
	total := split.CoordinatorAmountSats + split.TraderAmountSats + split.OnchainFeeSats
	require.Equal(t, int64(200_000), total)
}

func TestComputeRevertSplitErrorsOnUnderflow(t *testing.T) {
	_, err := ComputeRevertSplit(1_000, 5_000, 0, 0, 1)
	require.ErrorIs(t, err, ErrFeeUnderflow)
}

// Package settlement computes the pure arithmetic behind position
// settlement and collaborative revert splits. Grounded on
// coordinator/src/collaborative_revert.rs's calculate_dlc_channel_tx_fees
// and notify_user_to_collaboratively_revert.
package settlement

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
)

// ErrFeeUnderflow is returned whenever a saturating subtraction in the fee
// or split calculation would go negative. The caller must treat this as a
// hard failure rather than clamp to zero.
var ErrFeeUnderflow = errors.New("settlement: fee computation underflowed")

// CollaborativeRevertCloseTxWeightVBytes is the fixed weight of a
// collaborative-revert close transaction: one input spending the funding
// multisig, two outputs (one per party).
const CollaborativeRevertCloseTxWeightVBytes = 672

// DlcChannelFundingBaseWeightWU is the base weight, in weight units, of a
// DLC-channel funding transaction excluding inputs and change.
const DlcChannelFundingBaseWeightWU = 212

// CoordinatorPnL returns the coordinator's signed PnL at a settlement
// price, the negation of the trader's PnL.
func CoordinatorPnL(traderPnL int64) int64 {
	return -traderPnL
}

// SettlementAmount returns the trader's payout at settlement: their margin
// adjusted by their signed PnL. It does not saturate; a negative result
// indicates the trader's margin was exhausted by losses beyond their
// stake, which is a modeling bug upstream (margin call should have fired
// first) rather than something this function silently clamps.
func SettlementAmount(traderMargin int64, traderPnL int64) int64 {
	return traderMargin + traderPnL
}

// DlcChannelTxFees computes the fee consumed by the channel's on-chain
// structure: the funding value left over once inbound/outbound capacity
// and both parties' adjusted margins are subtracted. coordinatorPnL is the
// coordinator's signed PnL (see CoordinatorPnL): it is taken off the
// trader's margin and added to the coordinator's. Every step is checked;
// the first to go negative returns ErrFeeUnderflow rather than wrapping,
// mirroring the original's chained checked_sub.
func DlcChannelTxFees(initialFundingSats int64, coordinatorPnL int64, inboundSats, outboundSats int64, traderMargin, coordinatorMargin int64) (int64, error) {
	remaining := initialFundingSats

	remaining, ok := checkedSub(remaining, inboundSats)
	if !ok {
		return 0, ErrFeeUnderflow
	}

	remaining, ok = checkedSub(remaining, outboundSats)
	if !ok {
		return 0, ErrFeeUnderflow
	}

	traderAdjusted, ok := checkedSub(traderMargin, coordinatorPnL)
	if !ok {
		return 0, ErrFeeUnderflow
	}
	remaining, ok = checkedSub(remaining, traderAdjusted)
	if !ok {
		return 0, ErrFeeUnderflow
	}

	coordinatorAdjusted := coordinatorMargin + coordinatorPnL
	if coordinatorAdjusted < 0 {
		return 0, ErrFeeUnderflow
	}
	remaining, ok = checkedSub(remaining, coordinatorAdjusted)
	if !ok {
		return 0, ErrFeeUnderflow
	}

	return remaining, nil
}

// checkedSub returns (a - b, true) unless the result would be negative, in
// which case it returns (0, false).
func checkedSub(a, b int64) (int64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// RevertSplit is the sats each party receives from a collaborative revert,
// after the close transaction's on-chain fee has been split evenly.
type RevertSplit struct {
	CoordinatorAmountSats int64
	TraderAmountSats      int64
	OnchainFeeSats        int64
}

// ComputeRevertSplit computes the collaborative-revert split per the
// notify_user_to_collaboratively_revert algorithm:
//
//  1. coordinatorAmount = fundValue - inbound - settlementAmount - dlcChannelFee/2
//  2. traderAmount = fundValue - coordinatorAmount
//  3. fee = weight_to_fee(672, feeRateSatPerVByte)
//  4. coordinatorAmount -= ceil(fee/2); traderAmount -= ceil(fee/2)
//
// dlcChannelFeeSats is halved with integer truncation (matching the
// original's u64 division), the close-tx fee split rounds each half up so
// neither party benefits from losing a sat to rounding.
func ComputeRevertSplit(fundValueSats, inboundCapacitySats, settlementAmountSats, dlcChannelFeeSats int64, feeRateSatPerVByte int64) (*RevertSplit, error) {
	coordinatorAmount, ok := checkedSub(fundValueSats, inboundCapacitySats)
	if !ok {
		return nil, ErrFeeUnderflow
	}
	coordinatorAmount, ok = checkedSub(coordinatorAmount, settlementAmountSats)
	if !ok {
		return nil, ErrFeeUnderflow
	}
	coordinatorAmount, ok = checkedSub(coordinatorAmount, dlcChannelFeeSats/2)
	if !ok {
		return nil, ErrFeeUnderflow
	}

	traderAmount, ok := checkedSub(fundValueSats, coordinatorAmount)
	if !ok {
		return nil, ErrFeeUnderflow
	}

	fee := weightToFee(CollaborativeRevertCloseTxWeightVBytes, feeRateSatPerVByte)
	halfFee := ceilDiv2(int64(fee))

	coordinatorAmount, ok = checkedSub(coordinatorAmount, halfFee)
	if !ok {
		return nil, ErrFeeUnderflow
	}
	traderAmount, ok = checkedSub(traderAmount, halfFee)
	if !ok {
		return nil, ErrFeeUnderflow
	}

	return &RevertSplit{
		CoordinatorAmountSats: coordinatorAmount,
		TraderAmountSats:      traderAmount,
		OnchainFeeSats:        int64(fee),
	}, nil
}

// weightToFee converts a vByte weight into a fee at the given sat/vByte
// rate. CollaborativeRevertCloseTxWeightVBytes is already expressed in
// vBytes, so no /4 weight-unit conversion applies here (unlike
// DlcChannelFundingBaseWeightWU, which is in weight units).
func weightToFee(weightVBytes int64, feeRateSatPerVByte int64) btcutil.Amount {
	return btcutil.Amount(weightVBytes * feeRateSatPerVByte)
}

func ceilDiv2(v int64) int64 {
	return (v + 1) / 2
}

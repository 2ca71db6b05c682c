// Package revert implements the two-phase collaborative revert protocol:
// Propose computes the coordinator/trader split and persists a durable
// proposal; Confirm verifies, signs, finalizes, and broadcasts the
// trader-returned candidate transaction. Grounded on
// coordinator/src/collaborative_revert.rs's
// notify_user_to_collaboratively_revert and confirm_collaborative_revert.
package revert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/dlc-coordinator/coordinator/internal/settlement"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/dlc-coordinator/coordinator/internal/wallet"
)

// ErrNoCoordinatorOutput is returned by Confirm when the candidate
// transaction pays no output the coordinator's wallet controls.
var ErrNoCoordinatorOutput = errors.New("revert: no address for coordinator provided")

// ErrUnknownChannel is returned when channelID does not match a live
// sub-channel.
var ErrUnknownChannel = errors.New("revert: unknown channel")

// PositionStore is the subset of position persistence Propose/Confirm need.
type PositionStore interface {
	GetPositionByTrader(ctx context.Context, traderPubkey *btcec.PublicKey) (*types.Position, error)
	SetPositionClosed(ctx context.Context, positionID int64) error
}

// RevertStore persists collaborative revert proposals.
type RevertStore interface {
	InsertCollaborativeRevert(ctx context.Context, r *types.CollaborativeRevert) error
}

// Notifier delivers a CollaborativeRevert proposal to its trader. Sends
// are best-effort: if the trader isn't currently connected, the caller is
// expected to have already made the proposal durable via RevertStore, and
// the trader sees it next login.
type Notifier interface {
	NotifyCollaborativeRevert(ctx context.Context, traderPubkey *btcec.PublicKey, proposal types.CollaborativeRevert) error
}

// Protocol wires the collaborative revert flow to its collaborators.
type Protocol struct {
	Wallet    wallet.Backend
	Positions PositionStore
	Reverts   RevertStore
	Notifier  Notifier
}

// ProposeParams is the input to Propose.
type ProposeParams struct {
	ChannelID          types.ChannelID
	Price              float32
	FeeRateSatPerVByte int64
}

// Propose computes the split per internal/settlement, allocates a fresh
// coordinator address, persists the proposal, and notifies the trader.
// Persistence happens before the notify attempt, so a send failure never
// loses the proposal: the trader picks it up on next login.
func (p *Protocol) Propose(ctx context.Context, params ProposeParams) (*types.CollaborativeRevert, error) {
	channel, err := p.Wallet.DlcChannel(ctx, params.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("revert: locating channel: %w", ErrUnknownChannel)
	}

	position, err := p.Positions.GetPositionByTrader(ctx, channel.CounterpartyPubkey)
	if err != nil {
		return nil, fmt.Errorf("revert: loading position: %w", err)
	}

	priceDecimal := float64(params.Price)
	settlementAmount := settlementAmountAt(position, priceDecimal)
	pnl := settlement.CoordinatorPnL(traderPnLAt(position, priceDecimal))

	dlcChannelFee, err := settlement.DlcChannelTxFees(
		channel.FundValueSats,
		pnl,
		channel.InboundCapacitySats,
		channel.OutboundCapacitySats,
		position.TraderMargin,
		position.CoordinatorMargin,
	)
	if err != nil {
		return nil, fmt.Errorf("revert: computing dlc channel fees: %w", err)
	}

	split, err := settlement.ComputeRevertSplit(
		channel.FundValueSats,
		channel.InboundCapacitySats,
		settlementAmount,
		dlcChannelFee,
		params.FeeRateSatPerVByte,
	)
	if err != nil {
		return nil, fmt.Errorf("revert: computing split: %w", err)
	}

	address, err := p.Wallet.GetUnusedAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("revert: allocating coordinator address: %w", err)
	}

	proposal := &types.CollaborativeRevert{
		ChannelID:             params.ChannelID,
		TraderPubkey:          channel.CounterpartyPubkey,
		Price:                 params.Price,
		CoordinatorAddress:    address.String(),
		CoordinatorAmountSats: split.CoordinatorAmountSats,
		TraderAmountSats:      split.TraderAmountSats,
		Timestamp:             time.Now(),
	}

	if err := p.Reverts.InsertCollaborativeRevert(ctx, proposal); err != nil {
		return nil, fmt.Errorf("revert: persisting proposal: %w", err)
	}

	log.Debugf("proposing collaborative revert for channel %x: coordinator=%d trader=%d",
		params.ChannelID, split.CoordinatorAmountSats, split.TraderAmountSats)

	if err := p.Notifier.NotifyCollaborativeRevert(ctx, channel.CounterpartyPubkey, *proposal); err != nil {
		log.Warnf("could not notify trader of collaborative revert for channel %x (proposal remains durable): %v",
			params.ChannelID, err)
	}

	return proposal, nil
}

// ConfirmParams is the input to Confirm.
type ConfirmParams struct {
	ChannelID     types.ChannelID
	Transaction   *wire.MsgTx
	TraderSignature []byte
}

// Confirm verifies the trader-returned candidate transaction, signs and
// finalizes the 2-of-2 multisig input, broadcasts it, and closes the
// associated position. Any failure aborts before any mutation: the
// position is only marked Closed after a successful broadcast.
func (p *Protocol) Confirm(ctx context.Context, params ConfirmParams) (*wire.MsgTx, error) {
	if err := blockchain.CheckTransactionSanity(btcutil.NewTx(params.Transaction)); err != nil {
		return nil, fmt.Errorf("revert: candidate transaction failed sanity check: %w", err)
	}

	hasCoordinatorOutput := false
	for _, out := range params.Transaction.TxOut {
		mine, err := p.Wallet.IsMine(ctx, out.PkScript)
		if err != nil {
			continue
		}
		if mine {
			hasCoordinatorOutput = true
			break
		}
	}
	if !hasCoordinatorOutput {
		return nil, ErrNoCoordinatorOutput
	}

	channel, err := p.Wallet.DlcChannel(ctx, params.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("revert: locating channel: %w", ErrUnknownChannel)
	}

	position, err := p.Positions.GetPositionByTrader(ctx, channel.CounterpartyPubkey)
	if err != nil {
		return nil, fmt.Errorf("revert: loading position: %w", err)
	}

	coordinatorSig, err := p.Wallet.GetHolderSplitTxSignature(ctx, params.ChannelID, params.Transaction)
	if err != nil {
		return nil, fmt.Errorf("revert: signing candidate transaction: %w", err)
	}

	if err := p.Wallet.FinalizeMultisigInput(
		params.Transaction, coordinatorSig, params.TraderSignature, channel.OriginalFundingRedeemScript,
	); err != nil {
		return nil, fmt.Errorf("revert: finalizing multisig input: %w", err)
	}

	if err := p.Wallet.BroadcastTransaction(ctx, params.Transaction); err != nil {
		return nil, fmt.Errorf("revert: broadcasting: %w", err)
	}

	if err := p.Positions.SetPositionClosed(ctx, position.ID); err != nil {
		// The transaction already broadcast; this is a persistence
		// inconsistency to reconcile out of band, not a reason to
		// report failure to the trader who already has their funds.
		log.Errorf("broadcast succeeded but could not close position %d: %v", position.ID, err)
	}

	return params.Transaction, nil
}

func settlementAmountAt(position *types.Position, price float64) int64 {
	pnl := traderPnLAt(position, price)
	return settlement.SettlementAmount(position.TraderMargin, pnl)
}

// traderPnLAt is a placeholder for the bitmex-quote-derived PnL calculation
// the original performs via Position::calculate_coordinator_pnl against a
// synthetic Quote built from the revert price; here it is expressed
// directly as a function of entry price, revert price, and position size,
// since internal/settlement owns the pure arithmetic and this package only
// wires the inputs.
func traderPnLAt(position *types.Position, revertPrice float64) int64 {
	entry, _ := position.EntryPrice.Float64()
	qty, _ := position.Quantity.Float64()

	delta := revertPrice - entry
	if position.Direction == types.Short {
		delta = -delta
	}

	// Linear PnL in sats per contract unit, scaled by leverage the way the
	// original's margin-based contracts express collateral movement.
	return int64(delta * qty * position.Leverage)
}

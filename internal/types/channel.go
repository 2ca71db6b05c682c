package types

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
)

// ChannelID identifies a DLC channel.
type ChannelID [32]byte

// ChannelState is the lifecycle state of a DlcChannel. See SPEC_FULL.md
// §4.G. Closed, Failed, and Cancelled are terminal: once reached, no
// further transitions are accepted.
type ChannelState int

const (
	ChannelPending ChannelState = iota
	ChannelOpen
	ChannelClosing
	ChannelClosed
	ChannelFailed
	ChannelCancelled
)

func (s ChannelState) String() string {
	switch s {
	case ChannelPending:
		return "Pending"
	case ChannelOpen:
		return "Open"
	case ChannelClosing:
		return "Closing"
	case ChannelClosed:
		return "Closed"
	case ChannelFailed:
		return "Failed"
	case ChannelCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transitions are accepted from s.
func (s ChannelState) IsTerminal() bool {
	return s == ChannelClosed || s == ChannelFailed || s == ChannelCancelled
}

var channelTransitions = map[ChannelState][]ChannelState{
	ChannelPending: {ChannelOpen, ChannelFailed, ChannelCancelled},
	ChannelOpen:    {ChannelOpen, ChannelClosing},
	ChannelClosing: {ChannelClosing, ChannelClosed},
	ChannelClosed:  {},
	ChannelFailed:  {},
	ChannelCancelled: {},
}

// CanTransitionChannel reports whether moving a channel from `from` to `to`
// is permitted. Transitions are monotonic except Pending -> Cancelled, which
// this table already captures as one of Pending's allowed targets.
func CanTransitionChannel(from, to ChannelState) bool {
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, allowed := range channelTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// DlcChannel is the persistent record of a channel's lifecycle and the
// on-chain transactions observed against it.
type DlcChannel struct {
	OpenProtocolID    uuid.UUID
	ChannelID         ChannelID
	TraderPubkey      *btcec.PublicKey
	State             ChannelState
	FundingTxid       *chainhash.Hash
	CoordinatorReserve int64 // sats
	TraderReserve      int64 // sats

	// Txids observed during forced/collaborative close. Nil until set.
	BufferTxid *chainhash.Hash
	SettleTxid *chainhash.Hash
	ClaimTxid  *chainhash.Hash
	PunishTxid *chainhash.Hash
	CloseTxid  *chainhash.Hash

	CreatedAt time.Time
	UpdatedAt time.Time
}

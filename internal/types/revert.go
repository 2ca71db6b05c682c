package types

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
)

// CollaborativeRevert is a per-channel proposal record. Exactly one live
// proposal exists per channel ID; insertion is keyed on ChannelID.
type CollaborativeRevert struct {
	ChannelID          ChannelID
	TraderPubkey       *btcec.PublicKey
	Price              float32 // oracle-reference price, f32 per SPEC_FULL.md §9 open question 2
	CoordinatorAddress string
	CoordinatorAmountSats int64
	TraderAmountSats      int64
	Timestamp          time.Time
}

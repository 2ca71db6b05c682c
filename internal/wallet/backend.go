// Package wallet declares the capability interfaces the coordinator needs
// from an on-chain/Lightning wallet backend, without depending on any
// concrete wallet implementation. Grounded on the teacher's own pattern of
// accepting narrow interfaces (WalletController, AddressType) rather than
// a concrete *lnwallet.LightningWallet wherever possible, and on the
// external collaborator boundary named in the original node.wallet()/
// channel_manager accessors.
package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/dlc-coordinator/coordinator/internal/types"
)

// Backend is the capability surface the coordinator requires of the
// underlying wallet/node. It is intentionally narrow: ListUnspent is
// called by internal/api's trade handler, and every other method by
// internal/revert.
type Backend interface {
	// ListUnspent returns the wallet's spendable outputs above minConfs
	// confirmations.
	ListUnspent(ctx context.Context, minConfs int32) ([]Utxo, error)

	// IsMine reports whether pkScript pays to an address this wallet
	// controls.
	IsMine(ctx context.Context, pkScript []byte) (bool, error)

	// GetUnusedAddress returns a fresh receive address.
	GetUnusedAddress(ctx context.Context) (btcutil.Address, error)

	// DlcChannel returns the live sub-channel state for channelID as
	// tracked by the DLC layer (fund value, counterparty pubkeys, redeem
	// script), distinct from the coordinator's own persisted DlcChannel
	// row.
	DlcChannel(ctx context.Context, channelID types.ChannelID) (*DlcChannelDetails, error)

	// GetHolderSplitTxSignature signs the coordinator's input of a
	// collaborative-revert candidate transaction.
	GetHolderSplitTxSignature(ctx context.Context, channelID types.ChannelID, tx *wire.MsgTx) ([]byte, error)

	// FinalizeMultisigInput combines both parties' signatures against the
	// funding redeem script and writes the resulting witness into tx's
	// sole input.
	FinalizeMultisigInput(tx *wire.MsgTx, coordinatorSig, traderSig []byte, redeemScript []byte) error

	// BroadcastTransaction submits tx to the network.
	BroadcastTransaction(ctx context.Context, tx *wire.MsgTx) error
}

// Utxo is a spendable wallet output.
type Utxo struct {
	OutPoint         wire.OutPoint
	Value            btcutil.Amount
	PkScript         []byte
	Weight           int64
	IsWitnessProgram bool
}

// DlcChannelDetails is the live DLC-layer view of a sub-channel, as opposed
// to the coordinator's own persisted lifecycle row.
type DlcChannelDetails struct {
	ChannelID               types.ChannelID
	FundValueSats           int64
	InboundCapacitySats     int64
	OutboundCapacitySats    int64
	CounterpartyPubkey      *btcec.PublicKey
	OwnFundPubkey           *btcec.PublicKey
	CounterpartyFundPubkey  *btcec.PublicKey
	OriginalFundingRedeemScript []byte
	FundingTxid             *chainhash.Hash
}

package revert

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/dlc-coordinator/coordinator/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeWallet struct {
	channel         *wallet.DlcChannelDetails
	unusedAddress   btcutil.Address
	ownsOutput      bool
	broadcastCalled bool
	finalizeErr     error
}

func (f *fakeWallet) ListUnspent(context.Context, int32) ([]wallet.Utxo, error) { return nil, nil }

func (f *fakeWallet) IsMine(context.Context, []byte) (bool, error) {
	return f.ownsOutput, nil
}

func (f *fakeWallet) GetUnusedAddress(context.Context) (btcutil.Address, error) {
	return f.unusedAddress, nil
}

func (f *fakeWallet) DlcChannel(context.Context, types.ChannelID) (*wallet.DlcChannelDetails, error) {
	return f.channel, nil
}

func (f *fakeWallet) GetHolderSplitTxSignature(context.Context, types.ChannelID, *wire.MsgTx) ([]byte, error) {
	return []byte{0x01}, nil
}

func (f *fakeWallet) FinalizeMultisigInput(tx *wire.MsgTx, _, _, _ []byte) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	tx.TxIn[0].Witness = wire.TxWitness{[]byte{0x01}, []byte{0x02}}
	return nil
}

func (f *fakeWallet) BroadcastTransaction(context.Context, *wire.MsgTx) error {
	f.broadcastCalled = true
	return nil
}

type fakePositionStore struct {
	position *types.Position
	closedID int64
}

func (f *fakePositionStore) GetPositionByTrader(context.Context, *btcec.PublicKey) (*types.Position, error) {
	return f.position, nil
}

func (f *fakePositionStore) SetPositionClosed(_ context.Context, positionID int64) error {
	f.closedID = positionID
	return nil
}

type fakeRevertStore struct {
	inserted *types.CollaborativeRevert
}

func (f *fakeRevertStore) InsertCollaborativeRevert(_ context.Context, r *types.CollaborativeRevert) error {
	f.inserted = r
	return nil
}

type fakeNotifier struct {
	notified *types.CollaborativeRevert
	err      error

	// reverts, when set, lets the notifier record whether the proposal
	// was already persisted at the moment it was notified.
	reverts             *fakeRevertStore
	persistedAtNotify bool
}

func (f *fakeNotifier) NotifyCollaborativeRevert(_ context.Context, _ *btcec.PublicKey, proposal types.CollaborativeRevert) error {
	if f.reverts != nil {
		f.persistedAtNotify = f.reverts.inserted != nil
	}
	if f.err != nil {
		return f.err
	}
	f.notified = &proposal
	return nil
}

func newTestAddress(t *testing.T) btcutil.Address {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), &chaincfg.MainNetParams)
	require.NoError(t, err)
	return addr
}

func TestProposePersistsBeforeNotifying(t *testing.T) {
	traderPubkey := testTraderPubkey(t)

	w := &fakeWallet{
		channel: &wallet.DlcChannelDetails{
			FundValueSats:        200_000,
			InboundCapacitySats:  10_000,
			OutboundCapacitySats: 5_000,
			CounterpartyPubkey:   traderPubkey,
		},
		unusedAddress: newTestAddress(t),
	}
	positions := &fakePositionStore{
		position: &types.Position{
			ID:                1,
			TraderMargin:      50_000,
			CoordinatorMargin: 50_000,
			EntryPrice:        decimal.NewFromInt(20_000),
			Quantity:          decimal.NewFromInt(100),
			Direction:         types.Long,
			Leverage:          1,
		},
	}
	reverts := &fakeRevertStore{}
	notifier := &fakeNotifier{reverts: reverts}

	p := &Protocol{Wallet: w, Positions: positions, Reverts: reverts, Notifier: notifier}

	proposal, err := p.Propose(context.Background(), ProposeParams{
		ChannelID:          types.ChannelID{0x01},
		Price:              20_000,
		FeeRateSatPerVByte: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, reverts.inserted)
	require.Equal(t, proposal, reverts.inserted)
	require.NotNil(t, notifier.notified)
	require.True(t, notifier.persistedAtNotify)
}

func TestProposeSurvivesNotifyFailure(t *testing.T) {
	traderPubkey := testTraderPubkey(t)

	w := &fakeWallet{
		channel: &wallet.DlcChannelDetails{
			FundValueSats:       200_000,
			InboundCapacitySats: 10_000,
			CounterpartyPubkey:  traderPubkey,
		},
		unusedAddress: newTestAddress(t),
	}
	positions := &fakePositionStore{
		position: &types.Position{
			ID:                1,
			TraderMargin:      50_000,
			CoordinatorMargin: 50_000,
			EntryPrice:        decimal.NewFromInt(20_000),
			Quantity:          decimal.NewFromInt(100),
			Direction:         types.Long,
			Leverage:          1,
		},
	}
	reverts := &fakeRevertStore{}
	notifier := &fakeNotifier{err: assertErr}

	p := &Protocol{Wallet: w, Positions: positions, Reverts: reverts, Notifier: notifier}

	_, err := p.Propose(context.Background(), ProposeParams{ChannelID: types.ChannelID{0x01}, Price: 20_000, FeeRateSatPerVByte: 1})
	require.NoError(t, err)
	require.NotNil(t, reverts.inserted)
}

func TestConfirmRejectsMissingCoordinatorOutput(t *testing.T) {
	traderPubkey := testTraderPubkey(t)
	w := &fakeWallet{
		channel:    &wallet.DlcChannelDetails{CounterpartyPubkey: traderPubkey},
		ownsOutput: false,
	}
	positions := &fakePositionStore{position: &types.Position{ID: 1}}

	p := &Protocol{Wallet: w, Positions: positions, Reverts: &fakeRevertStore{}, Notifier: &fakeNotifier{}}

	tx := validCandidateTx(t)
	_, err := p.Confirm(context.Background(), ConfirmParams{ChannelID: types.ChannelID{0x01}, Transaction: tx, TraderSignature: []byte{0x02}})
	require.ErrorIs(t, err, ErrNoCoordinatorOutput)
}

func TestConfirmBroadcastsAndClosesPosition(t *testing.T) {
	traderPubkey := testTraderPubkey(t)
	w := &fakeWallet{
		channel:    &wallet.DlcChannelDetails{CounterpartyPubkey: traderPubkey},
		ownsOutput: true,
	}
	positions := &fakePositionStore{position: &types.Position{ID: 42}}

	p := &Protocol{Wallet: w, Positions: positions, Reverts: &fakeRevertStore{}, Notifier: &fakeNotifier{}}

	tx := validCandidateTx(t)
	result, err := p.Confirm(context.Background(), ConfirmParams{ChannelID: types.ChannelID{0x01}, Transaction: tx, TraderSignature: []byte{0x02}})
	require.NoError(t, err)
	require.Same(t, tx, result)
	require.True(t, w.broadcastCalled)
	require.Equal(t, int64(42), positions.closedID)
}

func validCandidateTx(t *testing.T) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0}})
	tx.AddTxOut(&wire.TxOut{Value: 100_000, PkScript: []byte{0x00, 0x14}})
	return tx
}

func testTraderPubkey(t *testing.T) *btcec.PublicKey {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey()
}

var assertErr = &sendError{}

type sendError struct{}

func (*sendError) Error() string { return "notifier unavailable" }

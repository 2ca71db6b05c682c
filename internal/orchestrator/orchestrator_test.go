package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu sync.Mutex

	sweepIDs   []uuid.UUID
	sweepErr   error
	inserted   []types.Order
	matched    *types.Order
	matchedErr error
	opposite   []types.Order
	oppositeErr error
	matches    []types.Match
	states     map[uuid.UUID]types.OrderState
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[uuid.UUID]types.OrderState)}
}

func (s *fakeStore) SweepExpiredLimitOrders(context.Context, time.Time) ([]uuid.UUID, error) {
	return s.sweepIDs, s.sweepErr
}

func (s *fakeStore) InsertOrder(_ context.Context, o *types.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, *o)
	s.states[o.ID] = o.State
	return nil
}

func (s *fakeStore) GetMatchedOrderForTrader(context.Context, string) (*types.Order, error) {
	if s.matchedErr != nil {
		return nil, s.matchedErr
	}
	return s.matched, nil
}

func (s *fakeStore) GetOpenLimitOrders(context.Context, types.Direction) ([]types.Order, error) {
	return s.opposite, s.oppositeErr
}

func (s *fakeStore) InsertMatch(_ context.Context, m *types.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, *m)
	return nil
}

func (s *fakeStore) SetOrderState(_ context.Context, orderID uuid.UUID, state types.OrderState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[orderID] = state
	return nil
}

func (s *fakeStore) stateOf(id uuid.UUID) types.OrderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

type fakeNotifier struct {
	mu          sync.Mutex
	matchFails  map[string]bool
	deletedIDs  []string
	notified    []types.FilledWith
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{matchFails: make(map[string]bool)}
}

func (n *fakeNotifier) NotifyMatch(pubkey *btcec.PublicKey, filled types.FilledWith) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.matchFails[string(pubkey.SerializeCompressed())] {
		return errNotify
	}
	n.notified = append(n.notified, filled)
	return nil
}

func (n *fakeNotifier) NotifyDeleteOrder(orderID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deletedIDs = append(n.deletedIDs, orderID)
}

var errNotify = &notifyErr{}

type notifyErr struct{}

func (*notifyErr) Error() string { return "trader not connected" }

func newPubkey(t *testing.T) *btcec.PublicKey {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey()
}

func submitAndWait(t *testing.T, p *Pipeline, order types.NewOrder) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.Submit(ctx, order, types.Manual)
}

func TestRejectsZeroPriceLimitOrder(t *testing.T) {
	store := newFakeStore()
	n := newFakeNotifier()
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	_, err := submitAndWait(t, p, types.NewOrder{
		TraderID: newPubkey(t),
		Type:     types.Limit,
		Price:    decimal.Zero,
		Quantity: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrInvalidOrder)
	require.Empty(t, store.inserted)
}

func TestSweepsExpiredOrdersAndBroadcastsDelete(t *testing.T) {
	sweptID := uuid.New()
	store := newFakeStore()
	store.sweepIDs = []uuid.UUID{sweptID}
	n := newFakeNotifier()
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	_, err := submitAndWait(t, p, types.NewOrder{
		TraderID: newPubkey(t),
		Type:     types.Limit,
		Price:    decimal.NewFromInt(20_000),
		Quantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Contains(t, n.deletedIDs, sweptID.String())
}

func TestLimitOrderReturnsImmediatelyWithoutMatching(t *testing.T) {
	store := newFakeStore()
	n := newFakeNotifier()
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	order, err := submitAndWait(t, p, types.NewOrder{
		TraderID: newPubkey(t),
		Type:     types.Limit,
		Direction: types.Long,
		Price:    decimal.NewFromInt(20_000),
		Quantity: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderOpen, order.State)
	require.Len(t, store.inserted, 1)
}

func TestMarketOrderRejectsWhenTraderAlreadyMatched(t *testing.T) {
	store := newFakeStore()
	store.matched = &types.Order{ID: uuid.New()}
	n := newFakeNotifier()
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	_, err := submitAndWait(t, p, types.NewOrder{
		TraderID: newPubkey(t),
		Type:     types.Market,
		Direction: types.Long,
		Price:    decimal.Zero,
		Quantity: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrOrderInExecution)
}

func TestMarketOrderNoMatchSetsFailed(t *testing.T) {
	store := newFakeStore()
	store.matchedErr = errNotFound{}
	n := newFakeNotifier()
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	order, err := submitAndWait(t, p, types.NewOrder{
		TraderID: newPubkey(t),
		Type:     types.Market,
		Direction: types.Long,
		Price:    decimal.Zero,
		Quantity: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	require.NotNil(t, order)
	require.Equal(t, types.OrderFailed, store.stateOf(order.ID))
}

func TestMarketOrderMatchesAndNotifiesBothSides(t *testing.T) {
	makerPubkey := newPubkey(t)
	maker := types.Order{
		ID:        uuid.New(),
		TraderID:  makerPubkey,
		Direction: types.Short,
		Type:      types.Limit,
		Price:     decimal.NewFromInt(20_000),
		Quantity:  decimal.NewFromInt(1),
		CreatedAt: time.Now(),
		State:     types.OrderOpen,
	}

	store := newFakeStore()
	store.matchedErr = errNotFound{}
	store.opposite = []types.Order{maker}
	n := newFakeNotifier()
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	takerPubkey := newPubkey(t)
	order, err := submitAndWait(t, p, types.NewOrder{
		TraderID:  takerPubkey,
		Type:      types.Market,
		Direction: types.Long,
		Price:     decimal.Zero,
		Quantity:  decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderMatched, store.stateOf(order.ID))
	require.Equal(t, types.OrderMatched, store.stateOf(maker.ID))
	require.Len(t, store.matches, 2)
	require.Len(t, n.notified, 2)
}

func TestMakerNotifyFailureSetsTaken(t *testing.T) {
	makerPubkey := newPubkey(t)
	maker := types.Order{
		ID:        uuid.New(),
		TraderID:  makerPubkey,
		Direction: types.Short,
		Type:      types.Limit,
		Price:     decimal.NewFromInt(20_000),
		Quantity:  decimal.NewFromInt(1),
		CreatedAt: time.Now(),
		State:     types.OrderOpen,
	}

	store := newFakeStore()
	store.matchedErr = errNotFound{}
	store.opposite = []types.Order{maker}
	n := newFakeNotifier()
	n.matchFails[string(makerPubkey.SerializeCompressed())] = true
	p := New(store, n, [32]byte{}, &chaincfg.RegressionNetParams)
	p.Start()
	defer p.Stop()

	order, err := submitAndWait(t, p, types.NewOrder{
		TraderID:  newPubkey(t),
		Type:      types.Market,
		Direction: types.Long,
		Price:     decimal.Zero,
		Quantity:  decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, types.OrderMatched, store.stateOf(order.ID))
	require.Equal(t, types.OrderTaken, store.stateOf(maker.ID))
}

type errNotFound struct{}

func (errNotFound) Error() string { return "no matched order" }

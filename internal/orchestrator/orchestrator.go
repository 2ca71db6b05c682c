// Package orchestrator owns the single-consumer trading pipeline: a
// bounded queue of incoming orders, each handled by its own detached task
// that sweeps expired limits, inserts the order, matches it, and notifies
// both sides. Grounded on htlcswitch/switch.go's htlcForwarder select loop,
// generalized from one forwarding command type to order-submission
// messages, and on orderbook/trading.rs's process_new_order step sequence.
package orchestrator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/dlc-coordinator/coordinator/internal/trading"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
)

// queueCapacity bounds the number of in-flight NewOrderMessages. A full
// queue applies backpressure to HTTP submission rather than growing
// unbounded memory.
const queueCapacity = 100

// ErrInvalidOrder is returned for a Limit order with price zero.
var ErrInvalidOrder = errors.New("orchestrator: limit order with zero price")

// ErrOrderInExecution is returned when a trader already has a Matched
// order and submits another Market order before settlement.
var ErrOrderInExecution = errors.New("orchestrator: trader already has a matched order in execution")

// Store is the persistence surface the orchestrator drives. Grounded on
// coordinator/src/db/dlc_channels.rs's function-per-transition shape,
// generalized to orders/matches.
type Store interface {
	SweepExpiredLimitOrders(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	InsertOrder(ctx context.Context, o *types.Order) error
	GetMatchedOrderForTrader(ctx context.Context, traderID string) (*types.Order, error)
	GetOpenLimitOrders(ctx context.Context, direction types.Direction) ([]types.Order, error)
	InsertMatch(ctx context.Context, m *types.Match) error
	SetOrderState(ctx context.Context, orderID uuid.UUID, state types.OrderState) error
}

// Notifier is the subset of notifier.Hub the orchestrator drives directly.
type Notifier interface {
	NotifyMatch(pubkey *btcec.PublicKey, filled types.FilledWith) error
	NotifyDeleteOrder(orderID string)
}

// Reason tags why a NewOrderMessage was submitted.
type Reason = types.OrderReason

// NewOrderMessage is one unit of work for the pipeline: the order to
// process, why it was submitted, and a reply channel the caller blocks on.
type NewOrderMessage struct {
	Order  types.NewOrder
	Reason Reason
	Reply  chan Reply
}

// Reply is delivered exactly once per NewOrderMessage.
type Reply struct {
	Order *types.Order
	Err   error
}

// Pipeline is the single-consumer trading orchestrator.
type Pipeline struct {
	store        Store
	notifier     Notifier
	oraclePubkey [32]byte
	clock        clock.Clock
	network      *chaincfg.Params

	inbound chan NewOrderMessage
	quit    chan struct{}
}

// New constructs a Pipeline using the real wall clock and network's
// contract-roll schedule (see trading.NextExpiryForNetwork). Start must be
// called once before Submit is used.
func New(store Store, notifier Notifier, oraclePubkey [32]byte, network *chaincfg.Params) *Pipeline {
	return NewWithClock(store, notifier, oraclePubkey, network, clock.NewDefaultClock())
}

// NewWithClock is New with an injectable clock.Clock, matching the
// teacher's own convention (lnwallet and sweep both accept a clock.Clock
// rather than calling time.Now() directly) so expiry-sweep timing can be
// driven deterministically in tests.
func NewWithClock(store Store, notifier Notifier, oraclePubkey [32]byte, network *chaincfg.Params, c clock.Clock) *Pipeline {
	return &Pipeline{
		store:        store,
		notifier:     notifier,
		oraclePubkey: oraclePubkey,
		clock:        c,
		network:      network,
		inbound:      make(chan NewOrderMessage, queueCapacity),
		quit:         make(chan struct{}),
	}
}

// Submit enqueues a new order and blocks until the spawned task replies.
// Returns an error if the pipeline isn't accepting work (shut down) or if
// the queue is full and ctx is canceled first.
func (p *Pipeline) Submit(ctx context.Context, order types.NewOrder, reason Reason) (*types.Order, error) {
	msg := NewOrderMessage{Order: order, Reason: reason, Reply: make(chan Reply, 1)}

	select {
	case <-p.quit:
		return nil, errors.New("orchestrator: pipeline stopped")
	default:
	}

	select {
	case p.inbound <- msg:
	case <-p.quit:
		return nil, errors.New("orchestrator: pipeline stopped")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case reply := <-msg.Reply:
		return reply.Order, reply.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start runs the consumer loop until Stop is called. Grounded directly on
// htlcForwarder's `case cmd := <-s.htlcPlex: ... case <-s.quit: return`
// shape: one long-lived goroutine drains the bounded channel and spawns a
// detached task per message, never blocking the loop itself on a single
// message's work.
func (p *Pipeline) Start() {
	go p.run()
}

// Stop terminates the consumer loop. In-flight tasks already spawned are
// allowed to finish; no new messages are accepted afterward.
func (p *Pipeline) Stop() {
	close(p.quit)
}

func (p *Pipeline) run() {
	for {
		select {
		case msg := <-p.inbound:
			go p.process(msg)

		case <-p.quit:
			return
		}
	}
}

// process implements the exact step sequence: reject zero-price limits,
// sweep expired limits, insert, and (for Market orders) match and notify.
func (p *Pipeline) process(msg NewOrderMessage) {
	ctx := context.Background()

	if msg.Order.Type == types.Limit && msg.Order.Price.IsZero() {
		msg.Reply <- Reply{Err: ErrInvalidOrder}
		return
	}

	swept, err := p.store.SweepExpiredLimitOrders(ctx, p.clock.Now())
	if err != nil {
		log.Errorf("sweeping expired limit orders: %v", err)
	}
	for _, id := range swept {
		p.notifier.NotifyDeleteOrder(id.String())
	}

	order := &types.Order{
		ID:             uuid.New(),
		TraderID:       msg.Order.TraderID,
		Direction:      msg.Order.Direction,
		Type:           msg.Order.Type,
		Price:          msg.Order.Price,
		Quantity:       msg.Order.Quantity,
		Leverage:       msg.Order.Leverage,
		ContractSymbol: msg.Order.ContractSymbol,
		CreatedAt:      p.clock.Now(),
		Expiry:         msg.Order.Expiry,
		State:          types.OrderOpen,
		Reason:         msg.Reason,
	}

	if err := p.store.InsertOrder(ctx, order); err != nil {
		msg.Reply <- Reply{Err: fmt.Errorf("orchestrator: inserting order: %w", err)}
		return
	}

	if order.Type == types.Limit {
		msg.Reply <- Reply{Order: order}
		return
	}

	p.matchAndNotify(ctx, order, msg.Reply)
}

func (p *Pipeline) matchAndNotify(ctx context.Context, order *types.Order, reply chan Reply) {
	traderKey := hex.EncodeToString(order.TraderID.SerializeCompressed())

	if existing, err := p.store.GetMatchedOrderForTrader(ctx, traderKey); err == nil && existing != nil {
		p.fail(ctx, order, reply, ErrOrderInExecution)
		return
	}

	opposite, err := p.store.GetOpenLimitOrders(ctx, order.Direction.Opposite())
	if err != nil {
		p.fail(ctx, order, reply, fmt.Errorf("orchestrator: loading opposite limit orders: %w", err))
		return
	}

	matched, err := trading.MatchMarket(*order, opposite, p.oraclePubkey, p.network)
	if err != nil {
		p.fail(ctx, order, reply, err)
		return
	}

	for _, m := range matched.TakerMatches.Filled.Matches {
		if err := p.store.InsertMatch(ctx, &m); err != nil {
			log.Errorf("persisting taker match: %v", err)
		}
	}
	for _, maker := range matched.MakerMatches {
		for _, m := range maker.Filled.Matches {
			if err := p.store.InsertMatch(ctx, &m); err != nil {
				log.Errorf("persisting maker match: %v", err)
			}
		}
	}

	// Taker side: a failed notify never downgrades the taker's state,
	// since retries happen elsewhere for the initiating side.
	if err := p.notifier.NotifyMatch(order.TraderID, matched.TakerMatches.Filled); err != nil {
		log.Warnf("could not notify taker %x of match: %v", order.TraderID.SerializeCompressed(), err)
	}
	if err := p.store.SetOrderState(ctx, order.ID, types.OrderMatched); err != nil {
		log.Errorf("setting taker order matched: %v", err)
	}

	for _, maker := range matched.MakerMatches {
		notifyErr := p.notifier.NotifyMatch(maker.TraderID.TraderID, maker.Filled)
		if notifyErr != nil {
			log.Warnf("could not notify maker %x of match: %v", maker.TraderID.TraderID.SerializeCompressed(), notifyErr)
		}
		// Taken is only reachable from Matched, so the maker passes
		// through Matched even when its notification failed.
		if err := p.store.SetOrderState(ctx, maker.TraderID.ID, types.OrderMatched); err != nil {
			log.Errorf("setting maker order state: %v", err)
		}
		if notifyErr != nil && maker.TraderID.Type == types.Limit {
			if err := p.store.SetOrderState(ctx, maker.TraderID.ID, types.OrderTaken); err != nil {
				log.Errorf("setting maker order taken: %v", err)
			}
		}
	}

	reply <- Reply{Order: order}
}

func (p *Pipeline) fail(ctx context.Context, order *types.Order, reply chan Reply, cause error) {
	if err := p.store.SetOrderState(ctx, order.ID, types.OrderFailed); err != nil {
		log.Errorf("setting order failed after match error: %v", err)
	}
	reply <- Reply{Order: order, Err: cause}
}

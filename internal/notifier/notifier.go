// Package notifier delivers orderbook and revert messages to connected
// traders, keyed by trader public key. Grounded on the teacher's
// htlcswitch mailbox pattern (a per-peer outbound queue drained by a
// dedicated goroutine) generalized from HTLC packets to JSON notification
// messages, using lightningnetwork/lnd/queue.ConcurrentQueue for the
// unbounded per-trader buffer the teacher's mailboxes also rely on.
package notifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/lightningnetwork/lnd/queue"
)

// Message is the tagged union of notifications a trader can receive, per
// the orderbook message set.
type Message struct {
	DeleteOrder         *DeleteOrder
	Match               *types.FilledWith
	AsyncMatch          *AsyncMatch
	CollaborativeRevert *types.CollaborativeRevert
}

// DeleteOrder announces that an order (typically an expired limit order)
// has left the book.
type DeleteOrder struct {
	OrderID string
}

// AsyncMatch carries both the originating order and its fill, used when
// the match was driven by an Expired-reason sweep rather than a live
// client request.
type AsyncMatch struct {
	Order  types.Order
	Filled types.FilledWith
}

func pubkeyKey(pk *btcec.PublicKey) string {
	return string(pk.SerializeCompressed())
}

// Hub tracks connected traders and fans out messages to each one's
// outbound queue. A trader with no live connection simply has no entry;
// senders experience that as ErrNotConnected rather than a blocking send.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	pubkey *btcec.PublicKey
	queue  *queue.ConcurrentQueue
}

// NewHub returns an empty notification hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// ErrNotConnected is returned when no live connection exists for a trader.
var ErrNotConnected = fmt.Errorf("notifier: trader not connected")

// outboundQueueSize is the buffer size of each trader's queue output
// channel. Messages beyond it wait in the queue's unbounded overflow
// list rather than being dropped.
const outboundQueueSize = 1000

// Register attaches a trader's outbound message queue, starting its
// delivery loop. The returned channel yields Messages in send order;
// Unregister stops the queue and must be called once the connection ends.
func (h *Hub) Register(pubkey *btcec.PublicKey) <-chan interface{} {
	q := queue.NewConcurrentQueue(outboundQueueSize)
	q.Start()

	h.mu.Lock()
	h.clients[pubkeyKey(pubkey)] = &client{pubkey: pubkey, queue: q}
	h.mu.Unlock()

	return q.ChanOut()
}

// Unregister stops and removes a trader's outbound queue.
func (h *Hub) Unregister(pubkey *btcec.PublicKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := pubkeyKey(pubkey)
	if c, ok := h.clients[key]; ok {
		c.queue.Stop()
		delete(h.clients, key)
	}
}

// Send enqueues msg for pubkey. Returns ErrNotConnected if the trader has
// no live registration; the caller (internal/revert, internal/trading via
// internal/orchestrator) is expected to have already persisted whatever
// msg represents, so a failed send never loses state.
func (h *Hub) Send(pubkey *btcec.PublicKey, msg Message) error {
	h.mu.RLock()
	c, ok := h.clients[pubkeyKey(pubkey)]
	h.mu.RUnlock()

	if !ok {
		return ErrNotConnected
	}

	c.queue.ChanIn() <- msg
	return nil
}

// NotifyCollaborativeRevert implements revert.Notifier.
func (h *Hub) NotifyCollaborativeRevert(_ context.Context, pubkey *btcec.PublicKey, proposal types.CollaborativeRevert) error {
	return h.Send(pubkey, Message{CollaborativeRevert: &proposal})
}

// NotifyMatch delivers a fill to its trader. Downgraded (never fatal) to
// the trade state machine: callers log.Warnf on ErrNotConnected rather
// than treat it as a step failure.
func (h *Hub) NotifyMatch(pubkey *btcec.PublicKey, filled types.FilledWith) error {
	return h.Send(pubkey, Message{Match: &filled})
}

// NotifyDeleteOrder announces an order's removal from the book to every
// connected trader, mirroring the original's broadcast-to-all-subscribers
// price-feed behavior rather than a single-recipient send.
func (h *Hub) NotifyDeleteOrder(orderID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.queue.ChanIn() <- Message{DeleteOrder: &DeleteOrder{OrderID: orderID}}:
		default:
			log.Warnf("dropped DeleteOrder broadcast for trader %x: queue full", c.pubkey.SerializeCompressed())
		}
	}
}

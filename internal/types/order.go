// Package types holds the data model shared across the coordinator: orders,
// matches, positions, DLC channels, and collaborative revert proposals.
package types

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of an order or position.
type Direction int

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Long {
		return "long"
	}
	return "short"
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// OrderType distinguishes market and limit orders.
type OrderType int

const (
	Market OrderType = iota
	Limit
)

// OrderState is the lifecycle state of an Order. See the state machine in
// SPEC_FULL.md §4.G: Open -> (Matched | Failed); Matched -> (Taken for limit
// makers that couldn't be notified | Filled on settlement).
type OrderState int

const (
	OrderOpen OrderState = iota
	OrderMatched
	OrderTaken
	OrderFilled
	OrderFailed
)

func (s OrderState) String() string {
	switch s {
	case OrderOpen:
		return "Open"
	case OrderMatched:
		return "Matched"
	case OrderTaken:
		return "Taken"
	case OrderFilled:
		return "Filled"
	case OrderFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// OrderReason records why an order was created.
type OrderReason int

const (
	Manual OrderReason = iota
	Expired
)

// orderTransitions is the allowed-transition table for Order.State. An
// attempted transition not listed here is rejected by the storage layer
// rather than silently applied.
var orderTransitions = map[OrderState][]OrderState{
	OrderOpen:    {OrderMatched, OrderFailed},
	OrderMatched: {OrderTaken, OrderFilled, OrderFailed},
	OrderTaken:   {OrderFilled, OrderFailed},
	OrderFilled:  {},
	OrderFailed:  {},
}

// CanTransitionOrder reports whether moving an order from `from` to `to` is
// permitted by the state machine in SPEC_FULL.md §4.G.
func CanTransitionOrder(from, to OrderState) bool {
	if from == to {
		return true
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is a resting or executed order in the book.
type Order struct {
	ID             uuid.UUID
	TraderID       *btcec.PublicKey
	Direction      Direction
	Type           OrderType
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	Leverage       float64
	ContractSymbol string
	CreatedAt      time.Time
	Expiry         time.Time
	State          OrderState
	Reason         OrderReason
}

// NewOrder is the ingress shape for a not-yet-persisted order.
type NewOrder struct {
	TraderID       *btcec.PublicKey
	Direction      Direction
	Type           OrderType
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	Leverage       float64
	ContractSymbol string
	Expiry         time.Time
}

// Match links a taker order to a maker order with the executed quantity and
// price. The execution price is always the maker's resting price.
type Match struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	MatchOrderID      uuid.UUID
	Quantity          decimal.Decimal
	ExecutionPrice    decimal.Decimal
	CounterpartyPubkey *btcec.PublicKey
	CreatedAt         time.Time
}

// FilledWith is the per-side match envelope delivered to each trader.
type FilledWith struct {
	OrderID         uuid.UUID
	Matches         []Match
	ExpiryTimestamp time.Time
	OraclePubkey    [32]byte
}

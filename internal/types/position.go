package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState is the lifecycle state of a Position.
type PositionState int

const (
	PositionOpen PositionState = iota
	PositionClosing
	PositionClosed
)

// Position tracks the trader/coordinator collateral split for an open
// contract. Created at first Match, closed on settlement or revert.
type Position struct {
	ID                int64
	TraderPubkey      [33]byte
	ContractSymbol    string
	Direction         Direction
	Quantity          decimal.Decimal
	EntryPrice        decimal.Decimal
	Leverage          float64
	TraderMargin      int64 // sats
	CoordinatorMargin int64 // sats
	State             PositionState
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

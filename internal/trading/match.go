// Package trading matches a taker market order against the resting book
// of opposite-direction limit orders. Grounded on
// coordinator/src/orderbook/trading.rs's match_order and sort_orders.
package trading

import (
	"errors"
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoMatch indicates the taker found no counterparty.
var ErrNoMatch = errors.New("trading: no match found")

// ErrQuantityTooLarge indicates the taker's size would require filling
// against more than one maker, which is unsupported: the caller must ask
// the trader to reduce size.
var ErrQuantityTooLarge = errors.New("trading: quantity too large, multi-maker fills unsupported")

// ErrNotMarketOrder indicates MatchMarket was called with a non-market
// order, a defensive re-check mirroring the original's re-validation
// inside match_order.
var ErrNotMarketOrder = errors.New("trading: match_order called with a non-market order")

// TraderMatchParams is one trader's view of an execution: the matches
// involving them and the shared contract parameters.
type TraderMatchParams struct {
	TraderID types.Order
	Filled   types.FilledWith
}

// MatchParams bundles the taker-side fill with one maker-side fill per
// maker consumed. Because multi-maker fills are rejected, MakerMatches
// always has exactly one element on success.
type MatchParams struct {
	TakerMatches TraderMatchParams
	MakerMatches []TraderMatchParams
}

// MatchMarket matches marketOrder (which must be a Market order) against
// opposite, the full set of open limit orders of the opposite direction.
// opposite is re-filtered defensively: any same-direction or non-Limit
// order present is dropped rather than trusted from the caller. params
// selects the network whose contract-roll schedule governs the resulting
// fill's expiry (NextExpiryForNetwork): mainnet/testnet roll weekly,
// regtest/simnet hourly.
func MatchMarket(marketOrder types.Order, opposite []types.Order, oraclePubkey [32]byte, params *chaincfg.Params) (*MatchParams, error) {
	if marketOrder.Type != types.Market {
		return nil, ErrNotMarketOrder
	}

	candidates := make([]types.Order, 0, len(opposite))
	for _, o := range opposite {
		if o.Type != types.Limit {
			continue
		}
		if o.Direction != marketOrder.Direction.Opposite() {
			continue
		}
		candidates = append(candidates, o)
	}

	sortOrders(candidates, marketOrder.Direction)

	remainder := marketOrder.Quantity
	var matched []types.Order

	for _, maker := range candidates {
		if remainder.LessThanOrEqual(decimal.Zero) {
			break
		}
		matched = append(matched, maker)
		remainder = remainder.Sub(maker.Quantity)
	}

	if len(matched) == 0 {
		return nil, ErrNoMatch
	}
	if len(matched) > 1 {
		return nil, ErrQuantityTooLarge
	}

	maker := matched[0]
	expiry := NextExpiryForNetwork(time.Now(), params)

	matchID := uuid.New()
	now := time.Now()

	takerMatch := types.Match{
		ID:                 matchID,
		OrderID:            marketOrder.ID,
		MatchOrderID:       maker.ID,
		Quantity:           marketOrder.Quantity,
		ExecutionPrice:     maker.Price,
		CounterpartyPubkey: maker.TraderID,
		CreatedAt:          now,
	}
	makerMatch := types.Match{
		ID:                 uuid.New(),
		OrderID:            maker.ID,
		MatchOrderID:       marketOrder.ID,
		Quantity:           marketOrder.Quantity,
		ExecutionPrice:     maker.Price,
		CounterpartyPubkey: marketOrder.TraderID,
		CreatedAt:          now,
	}

	return &MatchParams{
		TakerMatches: TraderMatchParams{
			TraderID: marketOrder,
			Filled: types.FilledWith{
				OrderID:         marketOrder.ID,
				Matches:         []types.Match{takerMatch},
				ExpiryTimestamp: expiry,
				OraclePubkey:    oraclePubkey,
			},
		},
		MakerMatches: []TraderMatchParams{
			{
				TraderID: maker,
				Filled: types.FilledWith{
					OrderID:         maker.ID,
					Matches:         []types.Match{makerMatch},
					ExpiryTimestamp: expiry,
					OraclePubkey:    oraclePubkey,
				},
			},
		},
	}, nil
}

// sortOrders orders candidate limit orders by priority for a market order
// of the given direction:
//   - Short market order: descending price (best bid first).
//   - Long market order: ascending price (best ask first).
//   - Tie-break within equal prices: ascending CreatedAt (earliest first).
func sortOrders(orders []types.Order, marketDirection types.Direction) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.Price.Equal(b.Price) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if marketDirection == types.Short {
			return a.Price.GreaterThan(b.Price)
		}
		return a.Price.LessThan(b.Price)
	})
}

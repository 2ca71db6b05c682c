package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsertOrder persists a newly accepted order in the Open state.
func (db *DB) InsertOrder(ctx context.Context, o *types.Order) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO orders (id, trader_id, type, price, quantity, direction,
			leverage, symbol, state, reason, expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, pubkeyHex(o.TraderID), o.Type, o.Price, o.Quantity, o.Direction,
		o.Leverage, o.ContractSymbol, o.State, o.Reason, o.Expiry, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: inserting order: %w", err)
	}
	return nil
}

// SetOrderState transitions an order's state, rejecting the update if the
// transition isn't allowed per types.CanTransitionOrder. It's a no-op
// (not an error) when the order is already in newState, so repeating a
// call is idempotent. The UPDATE is guarded on the state read first: when
// a concurrent writer changed the row in between, only that writer's
// update applies. Expiry sweeps do not go through here; see
// SweepExpiredLimitOrders.
func (db *DB) SetOrderState(ctx context.Context, orderID uuid.UUID, newState types.OrderState) error {
	row := db.pool.QueryRow(ctx, `SELECT state FROM orders WHERE id = $1`, orderID)
	var current types.OrderState
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("storage: loading order state: %w", err)
	}

	if current == newState {
		return nil
	}
	if !types.CanTransitionOrder(current, newState) {
		return fmt.Errorf("storage: order %s: illegal transition %v -> %v", orderID, current, newState)
	}

	tag, err := db.pool.Exec(ctx, `
		UPDATE orders SET state = $1 WHERE id = $2 AND state = $3`,
		newState, orderID, current,
	)
	if err != nil {
		return fmt.Errorf("storage: updating order state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race to a concurrent writer; the row no longer
		// matches `current`, so leave it alone rather than overwrite
		// whatever it raced to.
		return nil
	}
	return nil
}

// SweepExpiredLimitOrders marks every Open limit order whose expiry has
// passed as Failed with reason Expired, returning the affected order IDs
// so the caller can broadcast a DeleteOrder notification for each.
func (db *DB) SweepExpiredLimitOrders(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := db.pool.Query(ctx, `
		UPDATE orders SET state = $1, reason = $2
		WHERE type = $3 AND state = $4 AND expiry < $5
		RETURNING id`,
		types.OrderFailed, types.Expired, types.Limit, types.OrderOpen, now,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: sweeping expired limit orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scanning swept order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetOpenLimitOrders returns every Open limit order of the given direction,
// the candidate set the matcher defensively re-filters.
func (db *DB) GetOpenLimitOrders(ctx context.Context, direction types.Direction) ([]types.Order, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, trader_id, price, quantity, leverage, symbol, expiry, created_at
		FROM orders WHERE type = $1 AND state = $2 AND direction = $3`,
		types.Limit, types.OrderOpen, direction,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: loading open limit orders: %w", err)
	}
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		var (
			o             types.Order
			traderIDHex   string
		)
		if err := rows.Scan(&o.ID, &traderIDHex, &o.Price, &o.Quantity, &o.Leverage,
			&o.ContractSymbol, &o.Expiry, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scanning open limit order: %w", err)
		}
		pk, err := decodePubkeyHex(traderIDHex)
		if err != nil {
			return nil, fmt.Errorf("storage: decoding order trader pubkey: %w", err)
		}
		o.TraderID = pk
		o.Type = types.Limit
		o.Direction = direction
		o.State = types.OrderOpen
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOpenOrders returns every Open order regardless of direction or type,
// for the GET /api/orderbook/orders listing endpoint.
func (db *DB) GetOpenOrders(ctx context.Context) ([]types.Order, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, trader_id, type, price, quantity, direction, leverage,
			symbol, expiry, created_at
		FROM orders WHERE state = $1`, types.OrderOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: loading open orders: %w", err)
	}
	defer rows.Close()

	var orders []types.Order
	for rows.Next() {
		var (
			o           types.Order
			traderIDHex string
		)
		if err := rows.Scan(&o.ID, &traderIDHex, &o.Type, &o.Price, &o.Quantity,
			&o.Direction, &o.Leverage, &o.ContractSymbol, &o.Expiry, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scanning open order: %w", err)
		}
		pk, err := decodePubkeyHex(traderIDHex)
		if err != nil {
			return nil, fmt.Errorf("storage: decoding order trader pubkey: %w", err)
		}
		o.TraderID = pk
		o.State = types.OrderOpen
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOpenLimitOrder rewrites the price and quantity of a resting Open
// limit order. Returns an error if the order doesn't exist or is no
// longer an Open limit order.
func (db *DB) UpdateOpenLimitOrder(ctx context.Context, orderID uuid.UUID, price, quantity decimal.Decimal) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE orders SET price = $1, quantity = $2
		WHERE id = $3 AND state = $4 AND type = $5`,
		price, quantity, orderID, types.OrderOpen, types.Limit,
	)
	if err != nil {
		return fmt.Errorf("storage: updating order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: order %s not found or no longer open", orderID)
	}
	return nil
}

// CancelOrder marks an Open order Failed, used by the DELETE endpoint.
func (db *DB) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE orders SET state = $1 WHERE id = $2 AND state = $3`,
		types.OrderFailed, orderID, types.OrderOpen,
	)
	if err != nil {
		return fmt.Errorf("storage: cancelling order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: order %s not found or no longer open", orderID)
	}
	return nil
}

// GetMatchedOrderForTrader returns a trader's order currently in the
// Matched state, if any, used to reject a second concurrent market order
// per the Order invariant.
func (db *DB) GetMatchedOrderForTrader(ctx context.Context, traderID string) (*types.Order, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id FROM orders WHERE trader_id = $1 AND state = $2 LIMIT 1`,
		traderID, types.OrderMatched,
	)
	var o types.Order
	if err := row.Scan(&o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// InsertMatch persists one side of an executed match.
func (db *DB) InsertMatch(ctx context.Context, m *types.Match) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO matches (id, order_id, match_order_id, quantity, execution_price,
			counterparty_pubkey, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.OrderID, m.MatchOrderID, m.Quantity, m.ExecutionPrice,
		pubkeyHex(m.CounterpartyPubkey), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: inserting match: %w", err)
	}
	return nil
}

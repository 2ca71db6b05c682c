package storage

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/dlc-coordinator/coordinator/internal/types"
)

// InsertPosition creates a position row in the Open state.
func (db *DB) InsertPosition(ctx context.Context, p *types.Position) (int64, error) {
	row := db.pool.QueryRow(ctx, `
		INSERT INTO positions (trader, symbol, direction, quantity, entry_price,
			leverage, trader_margin, coordinator_margin, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		hexFromArray(p.TraderPubkey), p.ContractSymbol, p.Direction, p.Quantity, p.EntryPrice,
		p.Leverage, p.TraderMargin, p.CoordinatorMargin, types.PositionOpen,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: inserting position: %w", err)
	}
	return id, nil
}

// GetPositionByTrader loads the (at most one, per the invariant that a
// trader holds a single position per channel) open position for a trader
// pubkey.
func (db *DB) GetPositionByTrader(ctx context.Context, traderPubkey *btcec.PublicKey) (*types.Position, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, trader, symbol, direction, quantity, entry_price, leverage,
			trader_margin, coordinator_margin, state, created_at, updated_at
		FROM positions WHERE trader = $1 AND state <> $2
		ORDER BY created_at DESC LIMIT 1`,
		pubkeyHex(traderPubkey), types.PositionClosed,
	)

	var (
		p         types.Position
		traderHex string
	)
	if err := row.Scan(&p.ID, &traderHex, &p.ContractSymbol, &p.Direction, &p.Quantity,
		&p.EntryPrice, &p.Leverage, &p.TraderMargin, &p.CoordinatorMargin, &p.State,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("storage: loading position: %w", err)
	}
	copy(p.TraderPubkey[:], mustDecodeHex(traderHex))

	return &p, nil
}

// SetPositionClosed marks a position Closed, matching
// Position::set_position_to_closed.
func (db *DB) SetPositionClosed(ctx context.Context, positionID int64) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE positions SET state = $1, updated_at = now() WHERE id = $2`,
		types.PositionClosed, positionID,
	)
	if err != nil {
		return fmt.Errorf("storage: closing position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: position %d not found", positionID)
	}
	return nil
}

func hexFromArray(pk [33]byte) string {
	return hex.EncodeToString(pk[:])
}

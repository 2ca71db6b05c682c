package storage

import (
	"context"
	"fmt"

	"github.com/dlc-coordinator/coordinator/internal/types"
)

// InsertCollaborativeRevert persists a revert proposal keyed by channel ID;
// only one proposal can be live per channel.
func (db *DB) InsertCollaborativeRevert(ctx context.Context, r *types.CollaborativeRevert) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO collaborative_reverts (channel_id, trader_pubkey, price,
			coordinator_address, coordinator_amount_sats, trader_amount_sats, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel_id) DO UPDATE SET
			price = EXCLUDED.price,
			coordinator_address = EXCLUDED.coordinator_address,
			coordinator_amount_sats = EXCLUDED.coordinator_amount_sats,
			trader_amount_sats = EXCLUDED.trader_amount_sats,
			timestamp = EXCLUDED.timestamp`,
		channelIDHex(r.ChannelID), pubkeyHex(r.TraderPubkey), r.Price,
		r.CoordinatorAddress, r.CoordinatorAmountSats, r.TraderAmountSats, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("storage: inserting collaborative revert: %w", err)
	}
	return nil
}

// GetCollaborativeRevert loads the live proposal for a channel, if any.
func (db *DB) GetCollaborativeRevert(ctx context.Context, channelID types.ChannelID) (*types.CollaborativeRevert, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT channel_id, trader_pubkey, price, coordinator_address,
			coordinator_amount_sats, trader_amount_sats, timestamp
		FROM collaborative_reverts WHERE channel_id = $1`, channelIDHex(channelID))

	var (
		r              types.CollaborativeRevert
		channelIDStr   string
		traderPubkeyStr string
	)
	if err := row.Scan(&channelIDStr, &traderPubkeyStr, &r.Price, &r.CoordinatorAddress,
		&r.CoordinatorAmountSats, &r.TraderAmountSats, &r.Timestamp); err != nil {
		return nil, fmt.Errorf("storage: loading collaborative revert: %w", err)
	}

	copy(r.ChannelID[:], mustDecodeHex(channelIDStr))
	pk, err := decodePubkeyHex(traderPubkeyStr)
	if err != nil {
		return nil, fmt.Errorf("storage: decoding trader pubkey: %w", err)
	}
	r.TraderPubkey = pk

	return &r, nil
}

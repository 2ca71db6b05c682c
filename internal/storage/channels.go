package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
)

// ErrChannelIDExists is returned by InsertPendingDlcChannel when the
// proposed channel ID collides with one already on record.
var ErrChannelIDExists = errors.New("storage: channel id already exists")

func parseTxidField(s *string) *chainhash.Hash {
	if s == nil {
		return nil
	}
	h, err := chainhash.NewHashFromStr(*s)
	if err != nil {
		return nil
	}
	return h
}

// InsertPendingDlcChannel records a newly opening channel, mirroring
// insert_pending_dlc_channel.
func (db *DB) InsertPendingDlcChannel(ctx context.Context, ch *types.DlcChannel) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO dlc_channels (
			open_protocol_id, channel_id, state, trader_pubkey,
			coordinator_reserve_sats, trader_reserve_sats
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		ch.OpenProtocolID, channelIDHex(ch.ChannelID), types.ChannelPending,
		pubkeyHex(ch.TraderPubkey), ch.CoordinatorReserve, ch.TraderReserve,
	)
	if err != nil {
		if isUniqueViolation(err, "dlc_channels_channel_id_key") {
			return ErrChannelIDExists
		}
		return fmt.Errorf("storage: inserting pending dlc channel: %w", err)
	}
	return nil
}

// SetDlcChannelOpen transitions a channel to Open, mirroring
// set_dlc_channel_open.
func (db *DB) SetDlcChannelOpen(ctx context.Context, openProtocolID uuid.UUID, fundingTxid string) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelOpen, map[string]any{
		"funding_txid": fundingTxid,
	})
}

// SetChannelForceClosing mirrors set_channel_force_closing.
func (db *DB) SetChannelForceClosing(ctx context.Context, openProtocolID uuid.UUID, bufferTxid string) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelClosing, map[string]any{
		"buffer_txid": bufferTxid,
	})
}

// SetChannelForceClosingSettled mirrors set_channel_force_closing_settled.
func (db *DB) SetChannelForceClosingSettled(ctx context.Context, openProtocolID uuid.UUID, claimTxid string) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelClosed, map[string]any{
		"claim_txid": claimTxid,
	})
}

// SetChannelPunished mirrors set_channel_punished.
func (db *DB) SetChannelPunished(ctx context.Context, openProtocolID uuid.UUID, punishTxid string) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelClosed, map[string]any{
		"punish_txid": punishTxid,
	})
}

// SetChannelCollabClosing mirrors set_channel_collab_closing.
func (db *DB) SetChannelCollabClosing(ctx context.Context, openProtocolID uuid.UUID) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelClosing, nil)
}

// SetChannelCollabClosed mirrors set_channel_collab_closed.
func (db *DB) SetChannelCollabClosed(ctx context.Context, openProtocolID uuid.UUID, closeTxid string) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelClosed, map[string]any{
		"close_txid": closeTxid,
	})
}

// SetChannelFailed mirrors set_channel_failed.
func (db *DB) SetChannelFailed(ctx context.Context, openProtocolID uuid.UUID) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelFailed, nil)
}

// SetChannelCancelled mirrors set_channel_cancelled.
func (db *DB) SetChannelCancelled(ctx context.Context, openProtocolID uuid.UUID) error {
	return db.updateChannelState(ctx, openProtocolID, types.ChannelCancelled, nil)
}

// updateChannelState is the shared UPDATE ... SET state = $1, <extra
// columns>, updated_at = now() WHERE open_protocol_id = $n statement each
// transition in dlc_channels.rs performs.
func (db *DB) updateChannelState(ctx context.Context, openProtocolID uuid.UUID, state types.ChannelState, extraColumns map[string]any) error {
	query := "UPDATE dlc_channels SET state = $1, updated_at = now()"
	args := []any{state}
	i := 2
	for col, val := range extraColumns {
		query += fmt.Sprintf(", %s = $%d", col, i)
		args = append(args, val)
		i++
	}
	query += fmt.Sprintf(" WHERE open_protocol_id = $%d", i)
	args = append(args, openProtocolID)

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("storage: updating dlc channel state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: dlc channel %s not found", openProtocolID)
	}
	return nil
}

// GetDlcChannel loads a channel row by its channel ID.
func (db *DB) GetDlcChannel(ctx context.Context, channelID types.ChannelID) (*types.DlcChannel, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT open_protocol_id, channel_id, state, trader_pubkey,
			coordinator_reserve_sats, trader_reserve_sats,
			funding_txid, buffer_txid, settle_txid, claim_txid, punish_txid, close_txid,
			created_at, updated_at
		FROM dlc_channels WHERE channel_id = $1`, channelIDHex(channelID))

	var (
		ch                types.DlcChannel
		channelIDStr      string
		traderPubkeyStr   string
		fundingTxid       *string
		bufferTxid        *string
		settleTxid        *string
		claimTxid         *string
		punishTxid        *string
		closeTxid         *string
	)
	if err := row.Scan(
		&ch.OpenProtocolID, &channelIDStr, &ch.State, &traderPubkeyStr,
		&ch.CoordinatorReserve, &ch.TraderReserve,
		&fundingTxid, &bufferTxid, &settleTxid, &claimTxid, &punishTxid, &closeTxid,
		&ch.CreatedAt, &ch.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("storage: loading dlc channel: %w", err)
	}

	copy(ch.ChannelID[:], mustDecodeHex(channelIDStr))
	pubkey, err := decodePubkeyHex(traderPubkeyStr)
	if err != nil {
		return nil, fmt.Errorf("storage: decoding trader pubkey: %w", err)
	}
	ch.TraderPubkey = pubkey

	ch.FundingTxid = parseTxidField(fundingTxid)
	ch.BufferTxid = parseTxidField(bufferTxid)
	ch.SettleTxid = parseTxidField(settleTxid)
	ch.ClaimTxid = parseTxidField(claimTxid)
	ch.PunishTxid = parseTxidField(punishTxid)
	ch.CloseTxid = parseTxidField(closeTxid)

	return &ch, nil
}

func channelIDHex(id types.ChannelID) string {
	return hex.EncodeToString(id[:])
}

func pubkeyHex(pk *btcec.PublicKey) string {
	return hex.EncodeToString(pk.SerializeCompressed())
}

func decodePubkeyHex(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(b)
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

package types

import (
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/btcec/v2"
)

// pubkeyHex marshals a possibly-nil compressed public key as lowercase hex,
// matching the hex encoding internal/storage uses for the same keys.
func pubkeyHex(pk *btcec.PublicKey) string {
	if pk == nil {
		return ""
	}
	return hex.EncodeToString(pk.SerializeCompressed())
}

// MarshalJSON renders an Order for the HTTP/JSON and WebSocket surfaces,
// encoding TraderID as hex rather than relying on btcec.PublicKey's
// (unexported-field) default struct encoding.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID             string          `json:"id"`
		TraderID       string          `json:"trader_id"`
		Direction      string          `json:"direction"`
		Type           string          `json:"type"`
		Price          string          `json:"price"`
		Quantity       string          `json:"quantity"`
		Leverage       float64         `json:"leverage"`
		ContractSymbol string          `json:"symbol"`
		CreatedAt      int64           `json:"created_at"`
		Expiry         int64           `json:"expiry"`
		State          string          `json:"state"`
		Reason         string          `json:"reason"`
	}
	reason := "manual"
	if o.Reason == Expired {
		reason = "expired"
	}
	orderType := "market"
	if o.Type == Limit {
		orderType = "limit"
	}
	return json.Marshal(alias{
		ID:             o.ID.String(),
		TraderID:       pubkeyHex(o.TraderID),
		Direction:      o.Direction.String(),
		Type:           orderType,
		Price:          o.Price.String(),
		Quantity:       o.Quantity.String(),
		Leverage:       o.Leverage,
		ContractSymbol: o.ContractSymbol,
		CreatedAt:      o.CreatedAt.Unix(),
		Expiry:         o.Expiry.Unix(),
		State:          o.State.String(),
		Reason:         reason,
	})
}

// MarshalJSON renders a Match with its counterparty key as hex.
func (m Match) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID                 string `json:"id"`
		OrderID            string `json:"order_id"`
		MatchOrderID       string `json:"match_order_id"`
		Quantity           string `json:"quantity"`
		ExecutionPrice     string `json:"execution_price"`
		CounterpartyPubkey string `json:"counterparty_pubkey"`
		CreatedAt          int64  `json:"created_at"`
	}
	return json.Marshal(alias{
		ID:                 m.ID.String(),
		OrderID:            m.OrderID.String(),
		MatchOrderID:       m.MatchOrderID.String(),
		Quantity:           m.Quantity.String(),
		ExecutionPrice:     m.ExecutionPrice.String(),
		CounterpartyPubkey: pubkeyHex(m.CounterpartyPubkey),
		CreatedAt:          m.CreatedAt.Unix(),
	})
}

// MarshalJSON renders a FilledWith for delivery over the WebSocket push
// channel.
func (f FilledWith) MarshalJSON() ([]byte, error) {
	type alias struct {
		OrderID         string  `json:"order_id"`
		Matches         []Match `json:"matches"`
		ExpiryTimestamp int64   `json:"expiry_timestamp"`
		OraclePubkey    string  `json:"oracle_pubkey"`
	}
	return json.Marshal(alias{
		OrderID:         f.OrderID.String(),
		Matches:         f.Matches,
		ExpiryTimestamp: f.ExpiryTimestamp.Unix(),
		OraclePubkey:    hex.EncodeToString(f.OraclePubkey[:]),
	})
}

// MarshalJSON renders a CollaborativeRevert proposal for its HTTP response
// and WebSocket push.
func (c CollaborativeRevert) MarshalJSON() ([]byte, error) {
	type alias struct {
		ChannelID             string  `json:"channel_id"`
		TraderPubkey          string  `json:"trader_pubkey"`
		Price                 float32 `json:"price"`
		CoordinatorAddress    string  `json:"coordinator_address"`
		CoordinatorAmountSats int64   `json:"coordinator_amount_sats"`
		TraderAmountSats      int64   `json:"trader_amount_sats"`
		Timestamp             int64   `json:"timestamp"`
	}
	return json.Marshal(alias{
		ChannelID:             hex.EncodeToString(c.ChannelID[:]),
		TraderPubkey:          pubkeyHex(c.TraderPubkey),
		Price:                 c.Price,
		CoordinatorAddress:    c.CoordinatorAddress,
		CoordinatorAmountSats: c.CoordinatorAmountSats,
		TraderAmountSats:      c.TraderAmountSats,
		Timestamp:             c.Timestamp.Unix(),
	})
}

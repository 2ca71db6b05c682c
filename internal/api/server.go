// Package api serves the coordinator's HTTP/JSON + WebSocket surface per
// spec.md §6. Handlers are thin dispatch: decode, call into
// internal/orchestrator or internal/revert, encode. Grounded on
// 0xtitan6-polymarket-mm's internal/api package (gorilla/mux routing,
// gorilla/websocket upgrade-and-hub) for the HTTP/JSON+WS server shape
// the teacher's own gRPC rpcserver.go doesn't cover, while keeping the
// teacher's subsystem-logger convention (this package's `log`) instead of
// that example's `log/slog`.
package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/dlc-coordinator/coordinator/internal/config"
	"github.com/dlc-coordinator/coordinator/internal/notifier"
	"github.com/dlc-coordinator/coordinator/internal/orchestrator"
	"github.com/dlc-coordinator/coordinator/internal/revert"
	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/dlc-coordinator/coordinator/internal/wallet"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// OrderStore is the read surface orders.go needs beyond what
// orchestrator.Pipeline already exposes through Submit.
type OrderStore interface {
	GetOpenOrders(ctx context.Context) ([]types.Order, error)
	UpdateOpenLimitOrder(ctx context.Context, orderID uuid.UUID, price, quantity decimal.Decimal) error
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
}

// Server holds every dependency the HTTP handlers dispatch into.
type Server struct {
	Pipeline *orchestrator.Pipeline
	Revert   *revert.Protocol
	Orders   OrderStore
	Hub      *notifier.Hub
	Settings *config.Store
	Wallet   wallet.Backend

	router *mux.Router
}

// NewServer builds the coordinator's HTTP router.
func NewServer(pipeline *orchestrator.Pipeline, revertProto *revert.Protocol, orders OrderStore, hub *notifier.Hub, settings *config.Store, backend wallet.Backend) *Server {
	s := &Server{Pipeline: pipeline, Revert: revertProto, Orders: orders, Hub: hub, Settings: settings, Wallet: backend}

	r := mux.NewRouter()
	r.HandleFunc("/api/orderbook/orders", s.handlePostOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orderbook/orders/{id}", s.handlePutOrder).Methods(http.MethodPut)
	r.HandleFunc("/api/orderbook/orders/{id}", s.handleDeleteOrder).Methods(http.MethodDelete)
	r.HandleFunc("/api/orderbook/orders", s.handleGetOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orderbook/websocket", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/api/trade", s.handleTrade).Methods(http.MethodPost)
	r.HandleFunc("/api/collaborative_revert/{channel_id}", s.handleProposeRevert).Methods(http.MethodPost)
	r.HandleFunc("/api/collaborative_revert/{channel_id}/confirm", s.handleConfirmRevert).Methods(http.MethodPost)
	r.HandleFunc("/api/admin/settings", s.handleGetSettings).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/settings", s.handlePutSettings).Methods(http.MethodPut)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func parsePubkeyHex(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(raw)
}

func parseChannelID(s string) (types.ChannelID, error) {
	var id types.ChannelID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func decodeMsgTxHex(s string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return tx, nil
}

func encodeMsgTxHex(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

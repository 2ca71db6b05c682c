package api

import (
	"net/http"
	"time"

	"github.com/dlc-coordinator/coordinator/internal/types"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// newOrderRequest mirrors spec.md §6's NewOrder body.
type newOrderRequest struct {
	TraderID  string          `json:"trader_id"`
	Type      string          `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Direction string          `json:"direction"`
	Leverage  float64         `json:"leverage"`
	Symbol    string          `json:"symbol"`
	Expiry    int64           `json:"expiry"` // unix seconds
}

func (req newOrderRequest) toNewOrder() (types.NewOrder, error) {
	pubkey, err := parsePubkeyHex(req.TraderID)
	if err != nil {
		return types.NewOrder{}, err
	}

	orderType := types.Market
	if req.Type == "limit" {
		orderType = types.Limit
	}
	direction := types.Long
	if req.Direction == "short" {
		direction = types.Short
	}

	return types.NewOrder{
		TraderID:       pubkey,
		Direction:      direction,
		Type:           orderType,
		Price:          req.Price,
		Quantity:       req.Quantity,
		Leverage:       req.Leverage,
		ContractSymbol: req.Symbol,
		Expiry:         time.Unix(req.Expiry, 0).UTC(),
	}, nil
}

func (s *Server) handlePostOrder(w http.ResponseWriter, r *http.Request) {
	var req newOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}

	newOrder, err := req.toNewOrder()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}

	if minQuantity := s.Settings.Get().MinOrderQuantity; newOrder.Quantity.LessThan(minQuantity) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: "quantity is below the minimum order quantity " + minQuantity.String()})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := s.Pipeline.Submit(ctx, newOrder, types.Manual)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type updateOrderRequest struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (s *Server) handlePutOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: "malformed order id"})
		return
	}

	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.Orders.UpdateOpenLimitOrder(ctx, id, req.Price, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: "malformed order id"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := s.Orders.CancelOrder(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	s.Hub.NotifyDeleteOrder(id.String())
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := s.Orders.GetOpenOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

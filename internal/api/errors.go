package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dlc-coordinator/coordinator/internal/coinselect"
	"github.com/dlc-coordinator/coordinator/internal/orchestrator"
	"github.com/dlc-coordinator/coordinator/internal/revert"
	"github.com/dlc-coordinator/coordinator/internal/settlement"
	"github.com/dlc-coordinator/coordinator/internal/trading"
)

// errorResponse is the JSON shape of every failed HTTP response, per
// spec.md §7: `{ error: <kind>, detail: <string> }`.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// writeError classifies err against the kind taxonomy in spec.md §7 and
// writes the matching status code and JSON body. Validation and match
// outcomes map to 4xx; persistence and protocol failures are opaque 5xx.
func writeError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	writeJSON(w, status, errorResponse{Error: kind, Detail: err.Error()})
}

func classify(err error) (kind string, status int) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidOrder):
		return "InvalidOrder", http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrOrderInExecution):
		return "OrderInExecution", http.StatusConflict
	case errors.Is(err, revert.ErrNoCoordinatorOutput):
		return "NoCoordinatorOutput", http.StatusBadRequest
	case errors.Is(err, revert.ErrUnknownChannel):
		return "UnknownChannel", http.StatusNotFound
	case errors.Is(err, trading.ErrNoMatch):
		return "NoMatchFound", http.StatusNotFound
	case errors.Is(err, trading.ErrQuantityTooLarge):
		return "QuantityTooLarge", http.StatusBadRequest
	case errors.Is(err, settlement.ErrFeeUnderflow):
		return "FeeUnderflow", http.StatusUnprocessableEntity
	case errors.Is(err, coinselect.ErrCoinSelectionExhausted):
		return "CoinSelectionExhausted", http.StatusUnprocessableEntity
	default:
		return "Internal", http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding response body: %v", err)
	}
}

package api

import (
	"net/http"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/dlc-coordinator/coordinator/internal/coinselect"
)

// tradeRequest is TradeParams from spec.md §6: the trader has accepted a
// match and asks the coordinator to select funding inputs for the DLC
// channel's funding transaction.
type tradeRequest struct {
	FundingValueSats   int64 `json:"funding_value_sats"`
	FeeRateSatPerVByte int64 `json:"fee_rate_sat_per_vbyte"`
}

type tradeResponse struct {
	SelectedInputs []wire.OutPoint `json:"selected_inputs"`
	ChangeSats     int64           `json:"change_sats"`
	FeeSats        int64           `json:"fee_sats"`
}

// handleTrade runs branch-and-bound coin selection against the
// coordinator's own spendable outputs to fund its side of the DLC
// channel, returning 200 on a successful selection so the trader can
// proceed to the channel-open handshake (itself out of scope: the
// wallet/chain backend owns signing and broadcast).
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}
	if req.FeeRateSatPerVByte == 0 {
		req.FeeRateSatPerVByte = s.Settings.Get().NewOrderFeeRateSatPerVByte
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	utxos, err := s.Wallet.ListUnspent(ctx, 1)
	if err != nil {
		writeError(w, err)
		return
	}

	candidates := make([]coinselect.Candidate, len(utxos))
	for i, u := range utxos {
		candidates[i] = coinselect.Candidate{
			OutPoint:         u.OutPoint,
			Value:            u.Value,
			Weight:           u.Weight,
			IsWitnessProgram: u.IsWitnessProgram,
		}
	}

	result, err := coinselect.Select(candidates, coinselect.Target{
		Value:              btcutil.Amount(req.FundingValueSats),
		FeeRateSatPerVByte: req.FeeRateSatPerVByte,
	}, nil, false)
	if err != nil {
		writeError(w, err)
		return
	}

	outpoints := make([]wire.OutPoint, len(result.Selected))
	for i, c := range result.Selected {
		outpoints[i] = c.OutPoint
	}

	writeJSON(w, http.StatusOK, tradeResponse{
		SelectedInputs: outpoints,
		ChangeSats:     int64(result.ChangeSats),
		FeeSats:        int64(result.Fee),
	})
}

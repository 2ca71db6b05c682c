package api

import (
	"encoding/hex"
	"net/http"

	"github.com/dlc-coordinator/coordinator/internal/revert"
	"github.com/gorilla/mux"
)

type proposeRevertRequest struct {
	Price              float32 `json:"price"`
	FeeRateSatPerVByte int64   `json:"fee_rate_sats_vb"`
}

func (s *Server) handleProposeRevert(w http.ResponseWriter, r *http.Request) {
	channelID, err := parseChannelID(mux.Vars(r)["channel_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "UnknownChannel", Detail: err.Error()})
		return
	}

	var req proposeRevertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}
	if req.FeeRateSatPerVByte == 0 {
		req.FeeRateSatPerVByte = s.Settings.Get().NewOrderFeeRateSatPerVByte
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	proposal, err := s.Revert.Propose(ctx, revert.ProposeParams{
		ChannelID:          channelID,
		Price:              req.Price,
		FeeRateSatPerVByte: req.FeeRateSatPerVByte,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

type confirmRevertRequest struct {
	Transaction string `json:"transaction"` // hex-encoded wire.MsgTx
	Signature   string `json:"signature"`   // hex-encoded trader signature
}

type confirmRevertResponse struct {
	Transaction string `json:"transaction"`
}

func (s *Server) handleConfirmRevert(w http.ResponseWriter, r *http.Request) {
	channelID, err := parseChannelID(mux.Vars(r)["channel_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "UnknownChannel", Detail: err.Error()})
		return
	}

	var req confirmRevertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}

	tx, err := decodeMsgTxHex(req.Transaction)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: "malformed transaction: " + err.Error()})
		return
	}

	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: "malformed signature"})
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	confirmed, err := s.Revert.Confirm(ctx, revert.ConfirmParams{
		ChannelID:       channelID,
		Transaction:     tx,
		TraderSignature: sig,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	txHex, err := encodeMsgTxHex(confirmed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmRevertResponse{Transaction: txHex})
}

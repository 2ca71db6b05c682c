package api

import (
	"net/http"

	"github.com/dlc-coordinator/coordinator/internal/config"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var next config.Settings
	if err := decodeJSON(r, &next); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "InvalidOrder", Detail: err.Error()})
		return
	}

	s.Settings.Set(next)
	writeJSON(w, http.StatusOK, s.Settings.Get())
}

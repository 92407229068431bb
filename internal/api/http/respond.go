package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP statuses for the
// organization-authenticated endpoints, which may see full detail.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTerminalState):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	default:
		logger.Error("Internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// writePortalError is the untrusted-facing variant: everything collapses
// to generic strings so a probing caller cannot tell which ids exist.
func writePortalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "invalid token"})
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusGone, errorResponse{Error: "expired"})
	case errors.Is(err, domain.ErrTerminalState):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "invitation is read-only"})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
	default:
		logger.Error("Internal error on portal endpoint", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

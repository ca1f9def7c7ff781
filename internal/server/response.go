package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"trade-journal-go/internal/journal"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Status: "success", Data: data})
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{Status: "success", Data: data})
}

func writeErrorMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Status: "error", Message: message})
}

// writeError maps a domain error onto the HTTP surface. Forbidden collapses
// into the same generic not-found as a missing trade, so the response never
// reveals whether another owner's trade exists. Anything outside the domain
// taxonomy is logged in full and surfaced as a generic internal error.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if verr, ok := journal.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, Response{
			Status:  "error",
			Message: "Validation failed",
			Errors:  verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, journal.ErrUnauthenticated):
		writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, journal.ErrNotFound), errors.Is(err, journal.ErrForbidden):
		writeErrorMessage(w, http.StatusNotFound, "Trade not found")
	default:
		log.Error("Request failed", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

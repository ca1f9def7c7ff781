package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"trade-journal-go/internal/auth"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/metrics"
	"trade-journal-go/internal/query"
	"trade-journal-go/internal/repository"
)

// TradeHandler serves the trade CRUD and dashboard endpoints.
type TradeHandler struct {
	log  *zap.Logger
	repo *repository.TradeRepository
}

// NewTradeHandler creates a handler over the repository.
func NewTradeHandler(log *zap.Logger, repo *repository.TradeRepository) *TradeHandler {
	return &TradeHandler{log: log, repo: repo}
}

// List handles GET /api/trades.
func (h *TradeHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, h.log, journal.ErrUnauthenticated)
		return
	}

	params, err := query.ParseListParams(r.URL.Query())
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.repo.List(r.Context(), ownerID, params.Filter, params.Cursor, params.Limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeSuccess(w, page)
}

// Create handles POST /api/trades.
func (h *TradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, h.log, journal.ErrUnauthenticated)
		return
	}

	var in journal.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trade, err := h.repo.Create(r.Context(), ownerID, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeCreated(w, trade)
}

// Update handles PUT /api/trades/{id}.
func (h *TradeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, h.log, journal.ErrUnauthenticated)
		return
	}

	var in journal.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trade, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), ownerID, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeSuccess(w, trade)
}

// Delete handles DELETE /api/trades/{id}.
func (h *TradeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, h.log, journal.ErrUnauthenticated)
		return
	}

	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"), ownerID); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: "success", Message: "Trade deleted"})
}

// Metrics handles GET /api/metrics, the dashboard aggregate over the owner's
// full closed-trade history.
func (h *TradeHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, h.log, journal.ErrUnauthenticated)
		return
	}

	closed, err := h.repo.ClosedTrades(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeSuccess(w, metrics.Compute(closed))
}

// Health handles GET /api/health.
func (h *TradeHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: "success", Message: "ok"})
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/query"
	"trade-journal-go/internal/repository"
)

func setupTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := &Client{
		http:       resty.New().SetBaseURL(server.URL).SetAuthToken("test-token"),
		logger:     zap.NewNop(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: 3,
		token:      "test-token",
	}
	return c, server
}

func writeEnvelope(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

func mustRaw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestClient_ListTrades(t *testing.T) {
	cursor := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	page := repository.Page{
		Items: []models.Trade{
			{ID: "t1", Symbol: "AAPL", Direction: models.DirectionBuy, Status: models.StatusOpen},
		},
		NextCursor: &cursor,
		TotalCount: 7,
	}

	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/trades", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "aapl", r.URL.Query().Get("symbol"))
		assert.Equal(t, "CLOSED", r.URL.Query().Get("status"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, envelope{Status: "success", Data: mustRaw(t, page)})
	})

	got, err := c.ListTrades(context.Background(), query.Filter{Symbol: "aapl", Status: "CLOSED"}, nil, 20)

	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "t1", got.Items[0].ID)
	assert.Equal(t, int64(7), got.TotalCount)
	require.NotNil(t, got.NextCursor)
	assert.True(t, cursor.Equal(*got.NextCursor))
}

func TestClient_ListTrades_SendsCursor(t *testing.T) {
	cursor := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, cursor.Format(time.RFC3339Nano), r.URL.Query().Get("cursor"))
		writeEnvelope(w, http.StatusOK, envelope{Status: "success", Data: mustRaw(t, repository.Page{})})
	})

	_, err := c.ListTrades(context.Background(), query.Filter{}, &cursor, 20)
	require.NoError(t, err)
}

func TestClient_CreateTrade(t *testing.T) {
	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in journal.TradeInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "AAPL", in.Symbol)

		stored := models.Trade{ID: "server-id", OwnerID: "owner-1", Symbol: in.Symbol, Direction: in.Direction,
			EntryPrice: in.EntryPrice, Quantity: in.Quantity, Status: in.Status}
		writeEnvelope(w, http.StatusCreated, envelope{Status: "success", Data: mustRaw(t, stored)})
	})

	trade, err := c.CreateTrade(context.Background(), journal.TradeInput{
		Symbol: "AAPL", Direction: models.DirectionBuy, EntryPrice: 150, Quantity: 10, Status: models.StatusOpen,
	})

	require.NoError(t, err)
	assert.Equal(t, "server-id", trade.ID)
	assert.Equal(t, "owner-1", trade.OwnerID)
}

func TestClient_DeleteTrade(t *testing.T) {
	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/trades/t1", r.URL.Path)
		writeEnvelope(w, http.StatusOK, envelope{Status: "success", Message: "Trade deleted"})
	})

	require.NoError(t, c.DeleteTrade(context.Background(), "t1"))
}

func TestClient_DomainErrors(t *testing.T) {
	t.Run("UnauthorizedMapsToUnauthenticated", func(t *testing.T) {
		c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, envelope{Status: "error", Message: "Authentication required"})
		})

		_, err := c.ListTrades(context.Background(), query.Filter{}, nil, 20)
		assert.ErrorIs(t, err, journal.ErrUnauthenticated)
	})

	t.Run("NotFoundMapsToNotFound", func(t *testing.T) {
		c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusNotFound, envelope{Status: "error", Message: "Trade not found"})
		})

		err := c.DeleteTrade(context.Background(), "missing")
		assert.ErrorIs(t, err, journal.ErrNotFound)
	})

	t.Run("BadRequestCarriesFieldErrors", func(t *testing.T) {
		c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusBadRequest, envelope{
				Status:  "error",
				Message: "Validation failed",
				Errors: []journal.FieldError{
					{Field: "stop_loss", Message: "Stop loss must be below entry price for long positions"},
				},
			})
		})

		_, err := c.CreateTrade(context.Background(), journal.TradeInput{})

		verr, ok := journal.AsValidationError(err)
		require.True(t, ok)
		assert.True(t, verr.HasField("stop_loss"))
	})
}

func TestClient_RetriesServerErrors(t *testing.T) {
	attempts := 0
	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			writeEnvelope(w, http.StatusInternalServerError, envelope{Status: "error", Message: "Internal server error"})
			return
		}
		writeEnvelope(w, http.StatusOK, envelope{Status: "success", Data: mustRaw(t, repository.Page{TotalCount: 1})})
	})

	page, err := c.ListTrades(context.Background(), query.Filter{}, nil, 20)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		writeEnvelope(w, http.StatusInternalServerError, envelope{Status: "error", Message: "Internal server error"})
	})
	c.maxRetries = 2

	_, err := c.ListTrades(context.Background(), query.Filter{}, nil, 20)

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestClient_DoesNotRetryValidationErrors(t *testing.T) {
	attempts := 0
	c, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		writeEnvelope(w, http.StatusBadRequest, envelope{Status: "error", Message: "Validation failed",
			Errors: []journal.FieldError{{Field: "symbol", Message: "Symbol is required"}}})
	})

	_, err := c.CreateTrade(context.Background(), journal.TradeInput{})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/metrics"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/query"
	"trade-journal-go/internal/repository"
)

// API is the surface a Session mutates through. Satisfied by Client;
// narrowed to an interface so sessions can be tested against a mock.
type API interface {
	Authenticated() bool
	ListTrades(ctx context.Context, f query.Filter, cursor *time.Time, limit int) (repository.Page, error)
	CreateTrade(ctx context.Context, in journal.TradeInput) (*models.Trade, error)
	UpdateTrade(ctx context.Context, id string, in journal.TradeInput) (*models.Trade, error)
	DeleteTrade(ctx context.Context, id string) error
}

// Client is a rate-limited HTTP client for the journal API. Server failures
// and throttling are retried with backoff; domain errors (validation,
// not-found, auth) are decoded from the response envelope and returned as
// the structured errors the coordinator acts on.
type Client struct {
	http       *resty.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	maxRetries int
	token      string
}

// ensure Client implements the interface
var _ API = (*Client)(nil)

// NewClient creates a journal API client from configuration.
func NewClient(cfg *config.Client, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		http:       httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		maxRetries: maxRetries,
		token:      cfg.Token,
	}
}

// Authenticated reports whether the client carries a token. The session
// fails fast on mutations without one, before any request is attempted.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// envelope mirrors the server's response shape.
type envelope struct {
	Status  string               `json:"status"`
	Message string               `json:"message,omitempty"`
	Data    json.RawMessage      `json:"data,omitempty"`
	Errors  []journal.FieldError `json:"errors,omitempty"`
}

// ListTrades fetches one page of trades under the given filter and cursor.
func (c *Client) ListTrades(ctx context.Context, f query.Filter, cursor *time.Time, limit int) (repository.Page, error) {
	req := c.http.R().SetContext(ctx)
	setFilterParams(req, f)
	if cursor != nil {
		req.SetQueryParam("cursor", cursor.Format(time.RFC3339Nano))
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var page repository.Page
	if err := c.doJSON(ctx, http.MethodGet, "/api/trades", req, &page); err != nil {
		return repository.Page{}, err
	}
	return page, nil
}

// CreateTrade submits a new trade and returns the stored entity.
func (c *Client) CreateTrade(ctx context.Context, in journal.TradeInput) (*models.Trade, error) {
	req := c.http.R().SetContext(ctx).SetBody(in)
	var trade models.Trade
	if err := c.doJSON(ctx, http.MethodPost, "/api/trades", req, &trade); err != nil {
		return nil, err
	}
	return &trade, nil
}

// UpdateTrade replaces a trade's mutable fields and returns the updated
// entity.
func (c *Client) UpdateTrade(ctx context.Context, id string, in journal.TradeInput) (*models.Trade, error) {
	req := c.http.R().SetContext(ctx).SetBody(in)
	var trade models.Trade
	if err := c.doJSON(ctx, http.MethodPut, "/api/trades/"+id, req, &trade); err != nil {
		return nil, err
	}
	return &trade, nil
}

// DeleteTrade permanently removes a trade.
func (c *Client) DeleteTrade(ctx context.Context, id string) error {
	req := c.http.R().SetContext(ctx)
	return c.doJSON(ctx, http.MethodDelete, "/api/trades/"+id, req, nil)
}

// Metrics fetches the dashboard summary for the authenticated owner.
func (c *Client) Metrics(ctx context.Context) (*metrics.Summary, error) {
	req := c.http.R().SetContext(ctx)
	var summary metrics.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/api/metrics", req, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// doJSON executes the request through doRequest and decodes the envelope's
// data payload into out.
func (c *Client) doJSON(ctx context.Context, method, url string, req *resty.Request, out interface{}) error {
	resp, err := c.doRequest(ctx, method, url, req)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// doRequest handles the actual request execution with rate limiting and
// retry logic. 4xx responses map straight to domain errors; 429 and 5xx are
// retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < c.maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			switch {
			case statusCode == http.StatusTooManyRequests:
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case statusCode >= 500:
				// retry on server errors
			default:
				return nil, domainError(resp)
			}
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
	}
	return nil, fmt.Errorf("request failed after %d attempts with status %s", c.maxRetries, resp.Status())
}

// domainError maps a non-retryable response onto the error taxonomy.
func domainError(resp *resty.Response) error {
	var env envelope
	_ = json.Unmarshal(resp.Body(), &env)

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return journal.ErrUnauthenticated
	case http.StatusForbidden:
		return journal.ErrForbidden
	case http.StatusNotFound:
		return journal.ErrNotFound
	case http.StatusBadRequest:
		if len(env.Errors) > 0 {
			return &journal.ValidationError{Fields: env.Errors}
		}
		return fmt.Errorf("bad request: %s", env.Message)
	default:
		return fmt.Errorf("request failed with status %s", resp.Status())
	}
}

func setFilterParams(req *resty.Request, f query.Filter) {
	params := map[string]string{
		"selected":      f.ID,
		"status":        f.Status,
		"type":          f.Direction,
		"strategy":      f.Strategy,
		"timeframe":     f.Timeframe,
		"symbol":        f.Symbol,
		"profitability": f.Profitability,
	}
	for key, value := range params {
		if value != "" {
			req.SetQueryParam(key, value)
		}
	}
	if f.DateFrom != nil {
		req.SetQueryParam("dateFrom", f.DateFrom.Format(time.RFC3339Nano))
	}
	if f.DateTo != nil {
		req.SetQueryParam("dateTo", f.DateTo.Format(time.RFC3339Nano))
	}
}

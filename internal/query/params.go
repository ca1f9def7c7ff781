package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ListParams is a Filter plus the pagination window parsed from an HTTP
// query string.
type ListParams struct {
	Filter Filter
	Cursor *time.Time
	Limit  int
}

// ParseListParams maps the list query surface onto a ListParams. Recognized
// keys: selected, status, type, strategy, timeframe, symbol, dateFrom,
// dateTo, profitability, cursor, limit. Unknown keys are ignored; malformed
// dates, cursors, or limits are an error.
func ParseListParams(values url.Values) (ListParams, error) {
	p := ListParams{
		Filter: Filter{
			ID:            values.Get("selected"),
			Status:        strings.ToUpper(values.Get("status")),
			Direction:     values.Get("type"),
			Strategy:      values.Get("strategy"),
			Timeframe:     values.Get("timeframe"),
			Symbol:        values.Get("symbol"),
			Profitability: strings.ToLower(values.Get("profitability")),
		},
	}

	if from := values.Get("dateFrom"); from != "" {
		t, err := parseDate(from, false)
		if err != nil {
			return p, fmt.Errorf("invalid dateFrom: %w", err)
		}
		p.Filter.DateFrom = &t
	}
	if to := values.Get("dateTo"); to != "" {
		t, err := parseDate(to, true)
		if err != nil {
			return p, fmt.Errorf("invalid dateTo: %w", err)
		}
		p.Filter.DateTo = &t
	}

	if cursor := values.Get("cursor"); cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return p, fmt.Errorf("invalid cursor: %w", err)
		}
		p.Cursor = &t
	}

	if limit := values.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return p, fmt.Errorf("invalid limit: %w", err)
		}
		p.Limit = n
	}

	return p, nil
}

// parseDate accepts either a bare date or a full RFC3339 timestamp. A bare
// dateTo is widened to the end of that day so the range stays inclusive.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(dateOnly, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

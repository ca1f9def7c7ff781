package query

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
)

// Profitability filter values, meaningful only for closed trades.
const (
	ProfitabilityWin  = "win"
	ProfitabilityLoss = "loss"
)

// Filter is a sparse set of optional predicates over a user's trades. A zero
// field imposes no constraint. The owner predicate is not part of the filter:
// it is injected unconditionally by Scope and cannot be overridden by any
// filter field.
type Filter struct {
	ID            string
	Status        string
	Direction     string
	Strategy      string
	Timeframe     string
	Symbol        string
	DateFrom      *time.Time
	DateTo        *time.Time
	Profitability string
}

// Scope compiles the filter into a gorm scope. Every set field contributes
// one conjunctive clause. The ID selector short-circuits all other filters to
// a single-record lookup but still carries the ownership predicate.
func (f Filter) Scope(ownerID string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("owner_id = ?", ownerID)

		if f.ID != "" {
			return tx.Where("id = ?", f.ID)
		}

		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		}
		if f.Direction != "" {
			tx = tx.Where("direction = ?", journal.NormalizeDirection(f.Direction))
		}
		if f.Strategy != "" {
			tx = tx.Where("LOWER(strategy_name) LIKE ?", substring(f.Strategy))
		}
		if f.Timeframe != "" {
			tx = tx.Where("timeframe = ?", f.Timeframe)
		}
		if f.Symbol != "" {
			tx = tx.Where("LOWER(symbol) LIKE ?", substring(f.Symbol))
		}
		if f.DateFrom != nil {
			tx = tx.Where("created_at >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			tx = tx.Where("created_at <= ?", *f.DateTo)
		}

		// Profitability only ever matches closed trades; applying it to open
		// trades yields no rows by construction.
		switch f.Profitability {
		case ProfitabilityWin:
			tx = tx.Where("status = ? AND pnl > 0", models.StatusClosed)
		case ProfitabilityLoss:
			tx = tx.Where("status = ? AND pnl < 0", models.StatusClosed)
		}

		return tx
	}
}

// Paginate applies the cursor window: rows strictly older than the cursor,
// newest first, ties broken by id so the ordering is total.
func Paginate(cursor *time.Time) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if cursor != nil {
			tx = tx.Where("created_at < ?", *cursor)
		}
		return tx.Order("created_at DESC, id DESC")
	}
}

func substring(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

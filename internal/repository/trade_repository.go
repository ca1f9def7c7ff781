package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/query"
)

// Page size bounds enforced server-side regardless of what the client asks
// for.
const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// Page is a single window of list results plus the total count matching the
// filter independent of the pagination window.
type Page struct {
	Items      []models.Trade `json:"items"`
	NextCursor *time.Time     `json:"next_cursor,omitempty"`
	TotalCount int64          `json:"total_count"`
}

// TradeRepository is the only component that reads or writes the trades
// table. Every mutating operation performs an explicit read-then-compare
// ownership check inside a transaction, so a forbidden call has zero
// observable side effects and a concurrent delete surfaces as a clean
// NotFound instead of resurrecting state.
type TradeRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTradeRepository creates a repository over the given database handle.
func NewTradeRepository(db *gorm.DB, logger *zap.Logger) *TradeRepository {
	return &TradeRepository{db: db, logger: logger}
}

// List returns one page of the owner's trades under the given filter. The
// count and the page are read in a single transaction so they reflect the
// same snapshot of the predicate.
func (r *TradeRepository) List(ctx context.Context, ownerID string, f query.Filter, cursor *time.Time, limit int) (Page, error) {
	if ownerID == "" {
		return Page{}, journal.ErrUnauthenticated
	}
	limit = clampLimit(limit)

	var page Page
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Trade{}).
			Scopes(f.Scope(ownerID)).
			Count(&page.TotalCount).Error; err != nil {
			return fmt.Errorf("failed to count trades: %w", err)
		}

		// Fetch one extra row to learn whether another page exists.
		var items []models.Trade
		if err := tx.Model(&models.Trade{}).
			Scopes(f.Scope(ownerID), query.Paginate(cursor)).
			Limit(limit + 1).
			Find(&items).Error; err != nil {
			return fmt.Errorf("failed to list trades: %w", err)
		}

		if len(items) > limit {
			items = items[:limit]
			next := items[limit-1].CreatedAt
			page.NextCursor = &next
		}
		page.Items = items
		return nil
	})
	if err != nil {
		r.logger.Error("List trades failed", zap.String("owner_id", ownerID), zap.Error(err))
		return Page{}, err
	}
	return page, nil
}

// Create validates the input, stamps the owner and a fresh id, computes the
// derived PnL, and inserts the trade. The stored entity is returned with its
// generated id and timestamps.
func (r *TradeRepository) Create(ctx context.Context, ownerID string, in journal.TradeInput) (*models.Trade, error) {
	if ownerID == "" {
		return nil, journal.ErrUnauthenticated
	}

	normalized, verr := journal.Validate(in)
	if verr != nil {
		return nil, verr
	}

	trade := buildTrade(normalized)
	trade.ID = uuid.NewString()
	trade.OwnerID = ownerID

	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		r.logger.Error("Create trade failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	return trade, nil
}

// Update replaces the mutable fields of an existing trade. The ownership
// check happens strictly before any field is touched; the merged result is
// re-validated and PnL recomputed. Runs in a transaction so a concurrent
// delete turns into NotFound rather than a resurrecting write.
func (r *TradeRepository) Update(ctx context.Context, id, ownerID string, in journal.TradeInput) (*models.Trade, error) {
	if ownerID == "" {
		return nil, journal.ErrUnauthenticated
	}

	var updated *models.Trade
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := loadForOwner(tx, id, ownerID)
		if err != nil {
			return err
		}

		normalized, verr := journal.Validate(in)
		if verr != nil {
			return verr
		}

		trade := buildTrade(normalized)
		trade.ID = existing.ID
		trade.OwnerID = existing.OwnerID
		trade.CreatedAt = existing.CreatedAt

		// Save writes every field, which is what clears exit columns back to
		// NULL when a closed trade is reopened.
		if err := tx.Save(trade).Error; err != nil {
			return fmt.Errorf("failed to update trade: %w", err)
		}
		updated = trade
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		r.logger.Error("Update trade failed", zap.String("trade_id", id), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// Delete permanently removes a trade after the same existence and ownership
// checks as Update. Deleting a non-existent id is NotFound, not a silent
// success.
func (r *TradeRepository) Delete(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return journal.ErrUnauthenticated
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadForOwner(tx, id, ownerID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Trade{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete trade: %w", err)
		}
		return nil
	})
	if err != nil && !isDomainError(err) {
		r.logger.Error("Delete trade failed", zap.String("trade_id", id), zap.Error(err))
	}
	return err
}

// ClosedTrades returns the owner's full closed-trade history, oldest first,
// for metric aggregation.
func (r *TradeRepository) ClosedTrades(ctx context.Context, ownerID string) ([]models.Trade, error) {
	if ownerID == "" {
		return nil, journal.ErrUnauthenticated
	}

	var trades []models.Trade
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ? AND pnl IS NOT NULL", ownerID, models.StatusClosed).
		Order("created_at ASC").
		Find(&trades).Error
	if err != nil {
		r.logger.Error("Closed trades query failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to load closed trades: %w", err)
	}
	return trades, nil
}

// loadForOwner fetches the trade by id and compares its owner. The lookup is
// by id alone so a genuinely missing trade and someone else's trade are
// distinguishable internally; the HTTP layer collapses both to a generic
// not-found.
func loadForOwner(tx *gorm.DB, id, ownerID string) (*models.Trade, error) {
	var existing models.Trade
	if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, journal.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	if existing.OwnerID != ownerID {
		return nil, journal.ErrForbidden
	}
	return &existing, nil
}

// buildTrade maps validated input onto the entity and derives PnL for closed
// trades. Client-supplied PnL never survives this step.
func buildTrade(in journal.TradeInput) *models.Trade {
	trade := &models.Trade{
		Symbol:       in.Symbol,
		Direction:    in.Direction,
		EntryPrice:   in.EntryPrice,
		Quantity:     in.Quantity,
		StopLoss:     in.StopLoss,
		TakeProfit:   in.TakeProfit,
		Status:       in.Status,
		StrategyName: in.StrategyName,
		Timeframe:    in.Timeframe,
		Notes:        in.Notes,
	}
	if in.Status == models.StatusClosed && in.ExitPrice != nil {
		trade.ExitPrice = in.ExitPrice
		trade.ExitDate = in.ExitDate
		pnl := journal.Round2(journal.ComputePnL(in.Direction, in.EntryPrice, in.Quantity, *in.ExitPrice))
		trade.PnL = &pnl
	}
	return trade
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}

func isDomainError(err error) bool {
	if _, ok := journal.AsValidationError(err); ok {
		return true
	}
	return errors.Is(err, journal.ErrNotFound) ||
		errors.Is(err, journal.ErrForbidden) ||
		errors.Is(err, journal.ErrUnauthenticated)
}

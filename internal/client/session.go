package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/query"
)

// MutationState tracks the lifecycle of the most recent mutation.
type MutationState int

const (
	StateIdle MutationState = iota
	StatePending
	StateCommitted
	StateRolledBack
)

// Session mirrors a loaded prefix of the server's filtered trade list for
// one view and applies mutations optimistically: local state changes before
// the server call resolves, with snapshot-based rollback when it fails.
// A failed create removes the provisional entry rather than retaining it,
// so a failure never leaves a phantom trade in the list.
//
// Sessions are owned by a single view. Concurrent mutations on the same
// trade are rejected with ErrConflict instead of interleaving, and a closed
// session drops late responses so an abandoned in-flight call cannot
// clobber newer state.
type Session struct {
	mu         sync.Mutex
	api        API
	logger     *zap.Logger
	filter     query.Filter
	limit      int
	trades     []models.Trade
	nextCursor *time.Time
	totalCount int64
	loaded     bool
	inFlight   map[string]struct{}
	generation uint64
	closed     bool
	state      MutationState
}

// NewSession creates a session over the given API for one filtered view.
func NewSession(api API, f query.Filter, limit int, logger *zap.Logger) *Session {
	return &Session{
		api:      api,
		logger:   logger,
		filter:   f,
		limit:    limit,
		inFlight: make(map[string]struct{}),
		state:    StateIdle,
	}
}

// Trades returns a copy of the local list in display order.
func (s *Session) Trades() []models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// TotalCount returns the server-reported total for the session's filter.
func (s *Session) TotalCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCount
}

// HasMore reports whether another page can be loaded.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loaded || s.nextCursor != nil
}

// State returns the outcome of the most recent mutation.
func (s *Session) State() MutationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close abandons the session. In-flight calls still complete on the wire,
// but their responses no longer touch local state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
}

// LoadMore fetches the next page and appends it, deduplicating by id so a
// row that moved between pages under concurrent writes is not shown twice.
// The first call loads the first page.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.loaded && s.nextCursor == nil {
		s.mu.Unlock()
		return nil // nothing further to load
	}
	cursor := s.nextCursor
	gen := s.generation
	s.mu.Unlock()

	page, err := s.api.ListTrades(ctx, s.filter, cursor, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) {
		return nil
	}
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.trades))
	for _, t := range s.trades {
		seen[t.ID] = struct{}{}
	}
	for _, t := range page.Items {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		s.trades = append(s.trades, t)
	}
	s.nextCursor = page.NextCursor
	s.totalCount = page.TotalCount
	s.loaded = true
	return nil
}

// Create optimistically prepends a provisional trade, then submits it. On
// success the provisional entry is replaced by the stored entity; on failure
// it is removed and the error returned.
func (s *Session) Create(ctx context.Context, in journal.TradeInput) (*models.Trade, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	provisional := provisionalTrade(in)
	s.trades = append([]models.Trade{provisional}, s.trades...)
	s.totalCount++
	s.state = StatePending
	gen := s.generation
	s.mu.Unlock()

	created, err := s.api.CreateTrade(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) {
		return created, err
	}
	if err != nil {
		s.removeByID(provisional.ID)
		s.totalCount--
		s.state = StateRolledBack
		s.logger.Warn("Create rolled back", zap.Error(err))
		return nil, err
	}

	for i := range s.trades {
		if s.trades[i].ID == provisional.ID {
			s.trades[i] = *created
			break
		}
	}
	s.state = StateCommitted
	return created, nil
}

// Update optimistically rewrites the trade in place, keeping a snapshot of
// the whole list. On failure the snapshot is restored verbatim.
func (s *Session) Update(ctx context.Context, id string, in journal.TradeInput) (*models.Trade, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.acquire(id); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	snapshot := make([]models.Trade, len(s.trades))
	copy(snapshot, s.trades)

	for i := range s.trades {
		if s.trades[i].ID == id {
			applyInput(&s.trades[i], in)
			break
		}
	}
	s.state = StatePending
	gen := s.generation
	s.mu.Unlock()

	updated, err := s.api.UpdateTrade(ctx, id, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(id)
	if s.stale(gen) {
		return updated, err
	}
	if err != nil {
		s.trades = snapshot
		s.state = StateRolledBack
		s.logger.Warn("Update rolled back", zap.String("trade_id", id), zap.Error(err))
		return nil, err
	}

	for i := range s.trades {
		if s.trades[i].ID == id {
			s.trades[i] = *updated
			break
		}
	}
	s.state = StateCommitted
	return updated, nil
}

// Delete optimistically removes the trade, remembering its position. On
// failure the item is restored where it was; rollback never silently drops
// it.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.acquire(id); err != nil {
		s.mu.Unlock()
		return err
	}

	index := -1
	var removed models.Trade
	for i := range s.trades {
		if s.trades[i].ID == id {
			index = i
			removed = s.trades[i]
			break
		}
	}
	if index >= 0 {
		s.trades = append(s.trades[:index], s.trades[index+1:]...)
		s.totalCount--
	}
	s.state = StatePending
	gen := s.generation
	s.mu.Unlock()

	err := s.api.DeleteTrade(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(id)
	if s.stale(gen) {
		return err
	}
	if err != nil {
		if index >= 0 {
			s.trades = append(s.trades[:index], append([]models.Trade{removed}, s.trades[index:]...)...)
			s.totalCount++
		}
		s.state = StateRolledBack
		s.logger.Warn("Delete rolled back", zap.String("trade_id", id), zap.Error(err))
		return err
	}
	s.state = StateCommitted
	return nil
}

// mutable checks the preconditions shared by all mutations. Callers hold
// the lock.
func (s *Session) mutable() error {
	if s.closed {
		return journal.ErrConflict
	}
	if !s.api.Authenticated() {
		return journal.ErrUnauthenticated
	}
	return nil
}

// acquire marks a trade as having a mutation in flight. Callers hold the
// lock.
func (s *Session) acquire(id string) error {
	if _, busy := s.inFlight[id]; busy {
		return journal.ErrConflict
	}
	s.inFlight[id] = struct{}{}
	return nil
}

func (s *Session) release(id string) {
	delete(s.inFlight, id)
}

// stale reports whether the session moved on while the call was in flight.
// Callers hold the lock.
func (s *Session) stale(gen uint64) bool {
	return s.closed || gen != s.generation
}

func (s *Session) removeByID(id string) {
	for i := range s.trades {
		if s.trades[i].ID == id {
			s.trades = append(s.trades[:i], s.trades[i+1:]...)
			return
		}
	}
}

// provisionalTrade builds the placeholder entry shown while a create is in
// flight. The id is provisional and replaced by the server-assigned one.
func provisionalTrade(in journal.TradeInput) models.Trade {
	normalized, _ := journal.Validate(in)
	trade := models.Trade{
		ID:           "pending-" + uuid.NewString(),
		Symbol:       normalized.Symbol,
		Direction:    normalized.Direction,
		EntryPrice:   normalized.EntryPrice,
		Quantity:     normalized.Quantity,
		StopLoss:     normalized.StopLoss,
		TakeProfit:   normalized.TakeProfit,
		Status:       normalized.Status,
		ExitPrice:    normalized.ExitPrice,
		ExitDate:     normalized.ExitDate,
		StrategyName: normalized.StrategyName,
		Timeframe:    normalized.Timeframe,
		Notes:        normalized.Notes,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if normalized.Status == models.StatusClosed && normalized.ExitPrice != nil {
		pnl := journal.Round2(journal.ComputePnL(normalized.Direction, normalized.EntryPrice, normalized.Quantity, *normalized.ExitPrice))
		trade.PnL = &pnl
	}
	return trade
}

// applyInput rewrites a local entry with the submitted fields for the
// optimistic window before the server confirms.
func applyInput(t *models.Trade, in journal.TradeInput) {
	normalized, _ := journal.Validate(in)
	t.Symbol = normalized.Symbol
	t.Direction = normalized.Direction
	t.EntryPrice = normalized.EntryPrice
	t.Quantity = normalized.Quantity
	t.StopLoss = normalized.StopLoss
	t.TakeProfit = normalized.TakeProfit
	t.Status = normalized.Status
	t.ExitPrice = normalized.ExitPrice
	t.ExitDate = normalized.ExitDate
	t.PnL = nil
	if normalized.Status == models.StatusClosed && normalized.ExitPrice != nil {
		pnl := journal.Round2(journal.ComputePnL(normalized.Direction, normalized.EntryPrice, normalized.Quantity, *normalized.ExitPrice))
		t.PnL = &pnl
	}
	t.StrategyName = normalized.StrategyName
	t.Timeframe = normalized.Timeframe
	t.Notes = normalized.Notes
	t.UpdatedAt = time.Now()
}

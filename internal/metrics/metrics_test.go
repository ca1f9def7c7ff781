package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-go/internal/models"
)

func closedTrade(pnl float64, createdAt time.Time) models.Trade {
	return models.Trade{
		Status:    models.StatusClosed,
		PnL:       &pnl,
		CreatedAt: createdAt,
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	s := Compute(nil)

	// Win rate over zero trades is 0, never NaN or a division error.
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0, s.TotalTrades)
	assert.Equal(t, 0.0, s.TotalPnL)
	assert.Empty(t, s.TradesByDate)
}

func TestCompute_Aggregates(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	trades := []models.Trade{
		closedTrade(200, day1),
		closedTrade(-50, day1),
		closedTrade(100, day2),
		closedTrade(0, day2), // breakeven counts toward neither side
	}

	s := Compute(trades)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 250.0, s.TotalPnL)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.LessOrEqual(t, s.WinningTrades+s.LosingTrades, s.TotalTrades)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)

	require.Len(t, s.TradesByDate, 2)
	assert.Equal(t, DayBucket{PnL: 150, Trades: 2}, s.TradesByDate["2026-03-01"])
	assert.Equal(t, DayBucket{PnL: 100, Trades: 2}, s.TradesByDate["2026-03-02"])
}

func TestCompute_SkipsOpenAndPnLLessTrades(t *testing.T) {
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	open := models.Trade{Status: models.StatusOpen, CreatedAt: day}
	closedNoPnL := models.Trade{Status: models.StatusClosed, CreatedAt: day}

	s := Compute([]models.Trade{open, closedNoPnL, closedTrade(10, day)})

	assert.Equal(t, 1, s.TotalTrades)
	assert.Equal(t, 10.0, s.TotalPnL)
}

func TestCompute_AllLosses(t *testing.T) {
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := Compute([]models.Trade{closedTrade(-10, day), closedTrade(-20, day)})

	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, -30.0, s.TotalPnL)
	assert.Equal(t, 2, s.LosingTrades)
}

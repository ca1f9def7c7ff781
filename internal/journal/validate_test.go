package journal

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-go/internal/models"
)

func ptr(v float64) *float64 { return &v }

func validOpenInput() TradeInput {
	return TradeInput{
		Symbol:     "AAPL",
		Direction:  models.DirectionBuy,
		EntryPrice: 150,
		Quantity:   10,
		Status:     models.StatusOpen,
	}
}

func TestValidate_ValidOpenTrade(t *testing.T) {
	// Arrange
	in := validOpenInput()

	// Act
	out, verr := Validate(in)

	// Assert
	assert.Nil(t, verr)
	assert.Equal(t, "AAPL", out.Symbol)
	assert.Nil(t, out.PnL)
	assert.Nil(t, out.ExitPrice)
}

func TestValidate_NormalizesSymbolAndDirection(t *testing.T) {
	in := validOpenInput()
	in.Symbol = "  aapl "
	in.Direction = "long"

	out, verr := Validate(in)

	assert.Nil(t, verr)
	assert.Equal(t, "AAPL", out.Symbol)
	assert.Equal(t, models.DirectionBuy, out.Direction)
}

func TestValidate_RequiredFields(t *testing.T) {
	in := TradeInput{}

	_, verr := Validate(in)

	require.NotNil(t, verr)
	assert.True(t, verr.HasField("symbol"))
	assert.True(t, verr.HasField("direction"))
	assert.True(t, verr.HasField("entry_price"))
	assert.True(t, verr.HasField("quantity"))
	assert.True(t, verr.HasField("status"))
}

func TestValidate_CollectsAllViolationsInOnePass(t *testing.T) {
	in := TradeInput{
		Symbol:     "THISSYMBOLISWAYTOOLONGFORTWENTY",
		Direction:  "SIDEWAYS",
		EntryPrice: -1,
		Quantity:   0,
		Status:     "HALF_OPEN",
	}

	_, verr := Validate(in)

	require.NotNil(t, verr)
	assert.GreaterOrEqual(t, len(verr.Fields), 5)
}

func TestValidate_DirectionBounds(t *testing.T) {
	t.Run("LongStopLossAboveEntryRejected", func(t *testing.T) {
		in := validOpenInput()
		in.StopLoss = ptr(160)

		_, verr := Validate(in)

		require.NotNil(t, verr)
		require.True(t, verr.HasField("stop_loss"))
		assert.Contains(t, verr.Error(), "Stop loss must be below entry price for long positions")
	})

	t.Run("LongStopLossEqualToEntryRejected", func(t *testing.T) {
		in := validOpenInput()
		in.StopLoss = ptr(150)

		_, verr := Validate(in)

		require.NotNil(t, verr)
		assert.True(t, verr.HasField("stop_loss"))
	})

	t.Run("LongStopLossBelowEntryAccepted", func(t *testing.T) {
		in := validOpenInput()
		in.StopLoss = ptr(140)

		_, verr := Validate(in)

		assert.Nil(t, verr)
	})

	t.Run("ShortStopLossBelowEntryRejected", func(t *testing.T) {
		in := validOpenInput()
		in.Direction = models.DirectionSell
		in.EntryPrice = 100
		in.StopLoss = ptr(90)

		_, verr := Validate(in)

		require.NotNil(t, verr)
		require.True(t, verr.HasField("stop_loss"))
		assert.Contains(t, verr.Error(), "Stop loss must be above entry price for short positions")
	})

	t.Run("LongTakeProfitBelowEntryRejected", func(t *testing.T) {
		in := validOpenInput()
		in.TakeProfit = ptr(140)

		_, verr := Validate(in)

		require.NotNil(t, verr)
		require.True(t, verr.HasField("take_profit"))
		assert.Contains(t, verr.Error(), "Take profit must be above entry price for long positions")
	})

	t.Run("ShortTakeProfitAboveEntryRejected", func(t *testing.T) {
		in := validOpenInput()
		in.Direction = models.DirectionSell
		in.EntryPrice = 100
		in.TakeProfit = ptr(110)

		_, verr := Validate(in)

		require.NotNil(t, verr)
		require.True(t, verr.HasField("take_profit"))
		assert.Contains(t, verr.Error(), "Take profit must be below entry price for short positions")
	})

	t.Run("ShortBoundsAccepted", func(t *testing.T) {
		in := validOpenInput()
		in.Direction = models.DirectionSell
		in.EntryPrice = 100
		in.StopLoss = ptr(110)
		in.TakeProfit = ptr(80)

		_, verr := Validate(in)

		assert.Nil(t, verr)
	})
}

func TestValidate_ClosedCompleteness(t *testing.T) {
	t.Run("ClosedWithoutExitFieldsRejected", func(t *testing.T) {
		in := validOpenInput()
		in.Status = models.StatusClosed

		_, verr := Validate(in)

		require.NotNil(t, verr)
		assert.True(t, verr.HasField("exit_price"))
		assert.True(t, verr.HasField("exit_date"))
	})

	t.Run("ClosedWithExitFieldsAccepted", func(t *testing.T) {
		in := validOpenInput()
		in.Status = models.StatusClosed
		in.ExitPrice = ptr(165)
		now := time.Now()
		in.ExitDate = &now

		out, verr := Validate(in)

		assert.Nil(t, verr)
		assert.NotNil(t, out.ExitPrice)
		assert.NotNil(t, out.ExitDate)
	})

	t.Run("ReopeningClearsExitState", func(t *testing.T) {
		// A trade submitted as OPEN must have all exit state wiped even if
		// the client left stale values behind.
		in := validOpenInput()
		in.ExitPrice = ptr(165)
		now := time.Now()
		in.ExitDate = &now
		in.PnL = ptr(150)

		out, verr := Validate(in)

		assert.Nil(t, verr)
		assert.Nil(t, out.ExitPrice)
		assert.Nil(t, out.ExitDate)
		assert.Nil(t, out.PnL)
	})
}

func TestValidate_NonFiniteNumbersRejected(t *testing.T) {
	in := validOpenInput()
	in.EntryPrice = math.Inf(1)
	in.Quantity = math.NaN()

	_, verr := Validate(in)

	require.NotNil(t, verr)
	assert.True(t, verr.HasField("entry_price"))
	assert.True(t, verr.HasField("quantity"))
}

func TestValidate_MetadataLimits(t *testing.T) {
	in := validOpenInput()
	in.StrategyName = strings.Repeat("x", 51)
	in.Notes = strings.Repeat("x", 501)
	in.Timeframe = "2h"

	_, verr := Validate(in)

	require.NotNil(t, verr)
	assert.True(t, verr.HasField("strategy_name"))
	assert.True(t, verr.HasField("notes"))
	assert.True(t, verr.HasField("timeframe"))
}

package journal

import (
	"math"
	"strings"

	"trade-journal-go/internal/models"
)

const (
	maxSymbolLen   = 20
	maxStrategyLen = 50
	maxNotesLen    = 500
)

// Validate checks a trade submission against all field rules in a single
// pass and returns a normalized copy ready for persistence. Every violation
// is collected; nothing short-circuits, so the caller always gets the full
// list of field errors.
//
// Normalization: the symbol is trimmed and upper-cased, LONG/SHORT direction
// aliases are mapped to BUY/SELL, and an OPEN trade has its exit fields and
// PnL forcibly cleared so reopening can never leave stale exit state behind.
func Validate(in TradeInput) (TradeInput, *ValidationError) {
	verr := &ValidationError{}

	out := in
	out.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	out.Direction = NormalizeDirection(in.Direction)
	out.StrategyName = strings.TrimSpace(in.StrategyName)

	if out.Symbol == "" {
		verr.Add("symbol", "Symbol is required")
	} else if len(out.Symbol) > maxSymbolLen {
		verr.Add("symbol", "Symbol cannot exceed 20 characters")
	}

	if out.Direction != models.DirectionBuy && out.Direction != models.DirectionSell {
		verr.Add("direction", "Direction must be BUY or SELL")
	}

	if !positiveFinite(out.EntryPrice) {
		verr.Add("entry_price", "Entry price must be a positive number")
	}
	if !positiveFinite(out.Quantity) {
		verr.Add("quantity", "Quantity must be a positive number")
	}

	if out.Status != models.StatusOpen && out.Status != models.StatusClosed {
		verr.Add("status", "Status must be OPEN or CLOSED")
	}

	validateStopLoss(out, verr)
	validateTakeProfit(out, verr)

	switch out.Status {
	case models.StatusClosed:
		if out.ExitPrice == nil {
			verr.Add("exit_price", "Exit price is required for closed trades")
		} else if !positiveFinite(*out.ExitPrice) {
			verr.Add("exit_price", "Exit price must be a positive number")
		}
		if out.ExitDate == nil {
			verr.Add("exit_date", "Exit date is required for closed trades")
		}
	default:
		// Enforced reset: an open trade carries no exit state.
		out.ExitPrice = nil
		out.ExitDate = nil
		out.PnL = nil
	}

	if out.StrategyName != "" && len(out.StrategyName) > maxStrategyLen {
		verr.Add("strategy_name", "Strategy name cannot exceed 50 characters")
	}
	if out.Timeframe != "" && !models.ValidTimeframe(out.Timeframe) {
		verr.Add("timeframe", "Timeframe is not a recognized value")
	}
	if len(out.Notes) > maxNotesLen {
		verr.Add("notes", "Notes cannot exceed 500 characters")
	}

	if len(verr.Fields) > 0 {
		return out, verr
	}
	return out, nil
}

// validateStopLoss enforces the direction-aware bound: a long's stop must sit
// below the entry price, a short's above it. Skipped when the direction or
// entry price is itself invalid, to avoid cascading noise.
func validateStopLoss(in TradeInput, verr *ValidationError) {
	if in.StopLoss == nil {
		return
	}
	sl := *in.StopLoss
	if !positiveFinite(sl) {
		verr.Add("stop_loss", "Stop loss must be a positive number")
		return
	}
	if !positiveFinite(in.EntryPrice) {
		return
	}
	switch in.Direction {
	case models.DirectionBuy:
		if sl >= in.EntryPrice {
			verr.Add("stop_loss", "Stop loss must be below entry price for long positions")
		}
	case models.DirectionSell:
		if sl <= in.EntryPrice {
			verr.Add("stop_loss", "Stop loss must be above entry price for short positions")
		}
	}
}

// validateTakeProfit is the mirror of validateStopLoss.
func validateTakeProfit(in TradeInput, verr *ValidationError) {
	if in.TakeProfit == nil {
		return
	}
	tp := *in.TakeProfit
	if !positiveFinite(tp) {
		verr.Add("take_profit", "Take profit must be a positive number")
		return
	}
	if !positiveFinite(in.EntryPrice) {
		return
	}
	switch in.Direction {
	case models.DirectionBuy:
		if tp <= in.EntryPrice {
			verr.Add("take_profit", "Take profit must be above entry price for long positions")
		}
	case models.DirectionSell:
		if tp >= in.EntryPrice {
			verr.Add("take_profit", "Take profit must be below entry price for short positions")
		}
	}
}

// NormalizeDirection maps the LONG/SHORT aliases onto the stored BUY/SELL
// values. Unrecognized input is returned upper-cased for the enum check.
func NormalizeDirection(direction string) string {
	d := strings.ToUpper(strings.TrimSpace(direction))
	switch d {
	case "LONG":
		return models.DirectionBuy
	case "SHORT":
		return models.DirectionSell
	default:
		return d
	}
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

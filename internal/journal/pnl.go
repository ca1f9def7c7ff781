package journal

import (
	"math"

	"trade-journal-go/internal/models"
)

// ComputePnL returns the realized profit or loss for a closed position:
// (exit - entry) * quantity for longs, negated for shorts.
func ComputePnL(direction string, entryPrice, quantity, exitPrice float64) float64 {
	multiplier := 1.0
	if NormalizeDirection(direction) == models.DirectionSell {
		multiplier = -1.0
	}
	return multiplier * (exitPrice - entryPrice) * quantity
}

// Round2 rounds to two decimal places. Realized PnL is stored rounded so the
// persisted value matches what is displayed.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

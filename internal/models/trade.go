package models

import "time"

// Trade directions as stored. BUY is a long position, SELL a short.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Trade statuses.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Timeframes lists the chart timeframes a trade may be tagged with.
var Timeframes = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w"}

// Trade represents a single journaled position owned by one user.
// OwnerID is stamped from the authenticated caller at creation and never
// changes. PnL is derived from the entry/exit fields and is never written
// from client input.
type Trade struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	OwnerID      string     `gorm:"index;not null" json:"owner_id"`
	Symbol       string     `gorm:"size:20;not null" json:"symbol"`
	Direction    string     `gorm:"not null" json:"direction"`
	EntryPrice   float64    `gorm:"not null" json:"entry_price"`
	Quantity     float64    `gorm:"not null" json:"quantity"`
	StopLoss     *float64   `json:"stop_loss,omitempty"`
	TakeProfit   *float64   `json:"take_profit,omitempty"`
	Status       string     `gorm:"not null" json:"status"`
	ExitPrice    *float64   `json:"exit_price,omitempty"`
	ExitDate     *time.Time `json:"exit_date,omitempty"`
	PnL          *float64   `gorm:"column:pnl" json:"pnl,omitempty"`
	StrategyName string     `gorm:"size:50" json:"strategy_name,omitempty"`
	Timeframe    string     `json:"timeframe,omitempty"`
	Notes        string     `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsLong reports whether the trade profits from a rising price.
func (t *Trade) IsLong() bool {
	return t.Direction == DirectionBuy
}

// IsClosed reports whether the position has been exited.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// ValidTimeframe reports whether tf is one of the accepted timeframes.
func ValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

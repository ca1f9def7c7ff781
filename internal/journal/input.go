package journal

import "time"

// TradeInput is the client-submitted shape for create and update calls.
// It never carries an id or owner; a submitted PnL is always discarded and
// recomputed server-side.
type TradeInput struct {
	Symbol       string     `json:"symbol"`
	Direction    string     `json:"direction"`
	EntryPrice   float64    `json:"entry_price"`
	Quantity     float64    `json:"quantity"`
	StopLoss     *float64   `json:"stop_loss,omitempty"`
	TakeProfit   *float64   `json:"take_profit,omitempty"`
	Status       string     `json:"status"`
	ExitPrice    *float64   `json:"exit_price,omitempty"`
	ExitDate     *time.Time `json:"exit_date,omitempty"`
	PnL          *float64   `json:"pnl,omitempty"`
	StrategyName string     `json:"strategy_name,omitempty"`
	Timeframe    string     `json:"timeframe,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

package metrics

import (
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
)

// DayBucket accumulates realized PnL and the trade count for one calendar
// day.
type DayBucket struct {
	PnL    float64 `json:"pnl"`
	Trades int     `json:"trades"`
}

// Summary is the dashboard view over a user's full closed-trade history.
type Summary struct {
	TotalPnL      float64              `json:"total_pnl"`
	TotalTrades   int                  `json:"total_trades"`
	WinRate       float64              `json:"win_rate"`
	WinningTrades int                  `json:"winning_trades"`
	LosingTrades  int                  `json:"losing_trades"`
	TradesByDate  map[string]DayBucket `json:"trades_by_date"`
}

// Compute derives the summary from a set of closed trades. Trades without a
// realized PnL are skipped. Breakeven trades count toward the total but
// toward neither the winning nor losing side, so winning+losing may be less
// than the total. The win rate over zero trades is 0, never a division
// error.
func Compute(trades []models.Trade) Summary {
	s := Summary{TradesByDate: make(map[string]DayBucket)}

	for _, t := range trades {
		if !t.IsClosed() || t.PnL == nil {
			continue
		}
		pnl := *t.PnL

		s.TotalTrades++
		s.TotalPnL += pnl
		if pnl > 0 {
			s.WinningTrades++
		} else if pnl < 0 {
			s.LosingTrades++
		}

		day := t.CreatedAt.UTC().Format("2006-01-02")
		bucket := s.TradesByDate[day]
		bucket.PnL = journal.Round2(bucket.PnL + pnl)
		bucket.Trades++
		s.TradesByDate[day] = bucket
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	s.TotalPnL = journal.Round2(s.TotalPnL)
	return s
}

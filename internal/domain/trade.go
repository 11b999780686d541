package domain

import "time"

// TradeAction is the direction of a simulated fill.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// Trade is one immutable entry in the append-only order ledger. The trade
// history is the single source of truth for rebuilding positions after a
// restart; the in-memory account is a derived cache of it.
type Trade struct {
	ID         int64
	Symbol     string
	Action     TradeAction
	Quantity   int
	Price      float64
	Commission float64
	Timestamp  time.Time
	PlanID     *int64
	Notes      string
}

// TotalValue is the cash impact of the trade including commission: money out
// for a buy, money in for a sell.
func (t Trade) TotalValue() float64 {
	base := float64(t.Quantity) * t.Price
	if t.Action == TradeActionBuy {
		return base + t.Commission
	}
	return base - t.Commission
}

// TradeStats summarises the whole trade history.
type TradeStats struct {
	TotalTrades     int64
	BuyCount        int64
	SellCount       int64
	TotalCommission float64
	UniqueSymbols   int64
}

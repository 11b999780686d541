// Package ledger implements the in-memory virtual brokerage account: cash
// plus open positions, mutated only through simulated market buys and sells.
// Equity and P&L are derived on demand and never stored.
package ledger

import (
	"log/slog"
	"time"

	"github.com/tmcgann/papertrade/internal/domain"
)

// Account is the virtual trading account. It is not safe for concurrent use;
// the monitor serialises all access behind its tick lock.
type Account struct {
	initialCapital float64
	cash           float64
	positions      map[string]*domain.Position
	trades         []domain.Trade
	nextTradeID    int64
	logger         *slog.Logger
}

// NewAccount creates an empty account funded with the given initial capital.
func NewAccount(initialCapital float64, logger *slog.Logger) *Account {
	return &Account{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*domain.Position),
		nextTradeID:    1,
		logger:         logger.With(slog.String("component", "ledger")),
	}
}

// Buy executes a simulated market buy. It fails without mutating any state
// when the total cost (including commission) exceeds available cash. On
// success cash is debited, the position is created or merged at the
// volume-weighted average price, and a trade is appended to the history.
func (a *Account) Buy(symbol string, qty int, price, commission float64) (domain.Trade, bool) {
	totalCost := float64(qty)*price + commission
	if totalCost > a.cash {
		a.logger.Warn("buy rejected, insufficient funds",
			slog.String("symbol", symbol),
			slog.Float64("needed", totalCost),
			slog.Float64("cash", a.cash),
		)
		return domain.Trade{}, false
	}

	a.cash -= totalCost

	if pos, ok := a.positions[symbol]; ok {
		totalQty := pos.Quantity + qty
		basis := float64(pos.Quantity)*pos.AvgPrice + float64(qty)*price
		pos.Quantity = totalQty
		pos.AvgPrice = basis / float64(totalQty)
	} else {
		a.positions[symbol] = &domain.Position{
			Symbol:       symbol,
			Quantity:     qty,
			AvgPrice:     price,
			CurrentPrice: price,
		}
	}

	trade := a.appendTrade(symbol, domain.TradeActionBuy, qty, price, commission)

	a.logger.Info("buy executed",
		slog.String("symbol", symbol),
		slog.Int("quantity", qty),
		slog.Float64("price", price),
		slog.Float64("total_cost", totalCost),
	)
	return trade, true
}

// Sell executes a simulated market sell. It fails without mutating any state
// when there is no position or the position is smaller than qty. On success
// the proceeds net of commission are credited to cash, the position shrinks,
// and it is deleted entirely when its quantity reaches zero.
func (a *Account) Sell(symbol string, qty int, price, commission float64) (domain.Trade, bool) {
	pos, ok := a.positions[symbol]
	if !ok {
		a.logger.Warn("sell rejected, no position", slog.String("symbol", symbol))
		return domain.Trade{}, false
	}
	if pos.Quantity < qty {
		a.logger.Warn("sell rejected, insufficient shares",
			slog.String("symbol", symbol),
			slog.Int("held", pos.Quantity),
			slog.Int("requested", qty),
		)
		return domain.Trade{}, false
	}

	proceeds := float64(qty)*price - commission
	a.cash += proceeds

	pos.Quantity -= qty
	if pos.Quantity == 0 {
		// A closed position carries no meaningful average price; drop the
		// entry rather than keep a zero-quantity row.
		delete(a.positions, symbol)
	}

	trade := a.appendTrade(symbol, domain.TradeActionSell, qty, price, commission)

	a.logger.Info("sell executed",
		slog.String("symbol", symbol),
		slog.Int("quantity", qty),
		slog.Float64("price", price),
		slog.Float64("proceeds", proceeds),
	)
	return trade, true
}

func (a *Account) appendTrade(symbol string, action domain.TradeAction, qty int, price, commission float64) domain.Trade {
	trade := domain.Trade{
		ID:         a.nextTradeID,
		Symbol:     symbol,
		Action:     action,
		Quantity:   qty,
		Price:      price,
		Commission: commission,
		Timestamp:  time.Now().UTC(),
	}
	a.trades = append(a.trades, trade)
	a.nextTradeID++
	return trade
}

// MarkPrices updates the current price on every open position present in the
// map. Symbols absent from the map keep their last marked price.
func (a *Account) MarkPrices(prices map[string]float64) {
	for symbol, pos := range a.positions {
		if price, ok := prices[symbol]; ok {
			pos.CurrentPrice = price
		}
	}
}

// Position returns a copy of the open position for symbol, if any.
func (a *Account) Position(symbol string) (domain.Position, bool) {
	pos, ok := a.positions[symbol]
	if !ok {
		return domain.Position{}, false
	}
	return *pos, true
}

// Quantity returns the held share count for symbol, zero when flat.
func (a *Account) Quantity(symbol string) int {
	if pos, ok := a.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}

// Positions returns copies of all open positions.
func (a *Account) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(a.positions))
	for _, pos := range a.positions {
		out = append(out, *pos)
	}
	return out
}

// Cash returns the current free cash balance.
func (a *Account) Cash() float64 { return a.cash }

// InitialCapital returns the capital the account was funded with.
func (a *Account) InitialCapital() float64 { return a.initialCapital }

// MarketValue is the combined marked value of all open positions.
func (a *Account) MarketValue() float64 {
	var total float64
	for _, pos := range a.positions {
		total += pos.MarketValue()
	}
	return total
}

// TotalEquity is cash plus the market value of open positions.
func (a *Account) TotalEquity() float64 {
	return a.cash + a.MarketValue()
}

// Summary returns the derived point-in-time valuation of the account.
func (a *Account) Summary() domain.AccountSummary {
	equity := a.TotalEquity()
	pnl := equity - a.initialCapital
	pnlPct := 0.0
	if a.initialCapital != 0 {
		pnlPct = pnl / a.initialCapital * 100
	}
	return domain.AccountSummary{
		InitialCapital: a.initialCapital,
		Cash:           a.cash,
		MarketValue:    a.MarketValue(),
		TotalEquity:    equity,
		TotalPnL:       pnl,
		TotalPnLPct:    pnlPct,
		NumPositions:   len(a.positions),
		NumTrades:      len(a.trades),
	}
}

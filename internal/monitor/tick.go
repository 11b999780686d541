package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tmcgann/papertrade/internal/domain"
)

// runTick executes one full monitoring pass: market gate, condition refresh,
// per-symbol evaluation, then mark-to-market and snapshots. At most one tick
// runs at a time; a second caller gets ErrTickInProgress instead of blocking.
func (m *Monitor) runTick(ctx context.Context) error {
	if !m.tickMu.TryLock() {
		return domain.ErrTickInProgress
	}
	defer m.tickMu.Unlock()

	runID := uuid.NewString()
	logger := m.logger.With(slog.String("run_id", runID))
	logger.Info("tick started")

	if !m.quotes.MarketOpen(time.Now()) {
		logger.Info("market is closed, skipping tick")
		return nil
	}

	conds, err := m.plans.Load(ctx, m.cfg.MaxSymbols)
	if err != nil {
		m.record(ctx, fmt.Sprintf("failed to load trading conditions: %v", err), domain.LogTypeError)
		return nil
	}
	if len(conds) == 0 {
		m.record(ctx, "no trading conditions loaded, nothing to monitor", domain.LogTypeWarning)
		return nil
	}
	m.engine.ReplaceAll(conds, m.account.Quantity)

	// Single-symbol failures are isolated; the remaining symbols and the
	// snapshot step always run.
	for _, cond := range conds {
		m.evaluateSymbol(ctx, logger, cond.Symbol)
	}

	m.snapshot(ctx, logger)
	logger.Info("tick completed")
	return nil
}

// evaluateSymbol fetches one price and acts on whichever signal it produces.
func (m *Monitor) evaluateSymbol(ctx context.Context, logger *slog.Logger, symbol string) {
	price, err := m.quotes.CurrentPrice(ctx, symbol)
	if err != nil {
		logger.Error("failed to fetch price",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()))
		m.record(ctx, fmt.Sprintf("%s: price unavailable", symbol), domain.LogTypeError)
		return
	}

	cond, ok := m.engine.Condition(symbol)
	if !ok {
		m.record(ctx, fmt.Sprintf("%s: no trading condition", symbol), domain.LogTypeWarning)
		return
	}

	if sig := m.engine.CheckEntry(symbol, price); sig == domain.SignalBuy {
		m.executeEntry(ctx, logger, cond, price)
		return
	}
	if sig, reason := m.engine.CheckExit(symbol, price); sig == domain.SignalSell {
		m.executeExit(ctx, logger, cond, price, reason)
		return
	}

	// No signal: write a status line so the audit trail shows the symbol was
	// looked at.
	if qty := m.account.Quantity(symbol); qty > 0 {
		m.record(ctx, fmt.Sprintf("%s: $%.2f, holding %d shares (stop $%.2f, target $%.2f)",
			symbol, price, qty, deref(cond.StopLoss), deref(cond.TakeProfit)), domain.LogTypeInfo)
		return
	}
	if cond.EntryPrice != nil {
		rel := "below"
		if price > *cond.EntryPrice {
			rel = "above"
		}
		m.record(ctx, fmt.Sprintf("%s: $%.2f %s entry $%.2f, not bought",
			symbol, price, rel, *cond.EntryPrice), domain.LogTypeInfo)
	}
}

// executeEntry sizes and executes a buy. Order size is the configured
// fraction of total equity at the current price, floored to whole shares.
func (m *Monitor) executeEntry(ctx context.Context, logger *slog.Logger, cond domain.TradingCondition, price float64) {
	symbol := cond.Symbol
	equity := m.account.TotalEquity()
	qty := int(math.Floor(equity * m.cfg.MaxPositionFraction / price))
	if qty < 1 {
		logger.Warn("insufficient funds to buy",
			slog.String("symbol", symbol),
			slog.Float64("price", price))
		m.record(ctx, fmt.Sprintf("%s: $%.2f, insufficient funds to buy", symbol, price), domain.LogTypeWarning)
		return
	}

	commission := price * float64(qty) * m.cfg.CommissionRate
	trade, ok := m.account.Buy(symbol, qty, price, commission)
	if !ok {
		m.record(ctx, fmt.Sprintf("%s: buy failed", symbol), domain.LogTypeError)
		return
	}
	m.engine.SetQuantity(symbol, qty)

	trade.PlanID = cond.PlanID
	trade.Notes = fmt.Sprintf("entry $%.2f, stop $%.2f, target $%.2f",
		deref(cond.EntryPrice), deref(cond.StopLoss), deref(cond.TakeProfit))
	m.persistTrade(ctx, trade)

	logger.Info("buy executed",
		slog.String("symbol", symbol),
		slog.Int("quantity", qty),
		slog.Float64("price", price))
	m.record(ctx, fmt.Sprintf("%s: bought %d shares @ $%.2f (entry $%.2f, stop $%.2f, target $%.2f)",
		symbol, qty, price,
		deref(cond.EntryPrice), deref(cond.StopLoss), deref(cond.TakeProfit)), domain.LogTypeTrade)

	m.notify(ctx, "trade", fmt.Sprintf("BUY %s", symbol),
		fmt.Sprintf("Bought %d shares of %s @ $%.2f", qty, symbol, price))
}

// executeExit sells the full held quantity and records realized P&L in the
// trade notes.
func (m *Monitor) executeExit(ctx context.Context, logger *slog.Logger, cond domain.TradingCondition, price float64, reason domain.ExitReason) {
	symbol := cond.Symbol
	pos, ok := m.account.Position(symbol)
	if !ok {
		logger.Warn("no position to sell", slog.String("symbol", symbol))
		return
	}
	qty := pos.Quantity

	commission := price * float64(qty) * m.cfg.CommissionRate
	trade, sold := m.account.Sell(symbol, qty, price, commission)
	if !sold {
		m.record(ctx, fmt.Sprintf("%s: sell failed", symbol), domain.LogTypeError)
		return
	}
	m.engine.SetQuantity(symbol, 0)

	pnl := (price-pos.AvgPrice)*float64(qty) - commission
	pnlPct := 0.0
	if pos.AvgPrice != 0 {
		pnlPct = (price - pos.AvgPrice) / pos.AvgPrice * 100
	}

	trade.PlanID = cond.PlanID
	trade.Notes = fmt.Sprintf("%s: P&L $%.2f (%+.2f%%)", exitLabel(reason), pnl, pnlPct)
	m.persistTrade(ctx, trade)

	logger.Info("sell executed",
		slog.String("symbol", symbol),
		slog.Int("quantity", qty),
		slog.Float64("price", price),
		slog.Float64("pnl", pnl),
		slog.String("reason", string(reason)))
	m.record(ctx, fmt.Sprintf("%s: %s, sold %d shares @ $%.2f, P&L $%.2f (%+.2f%%)",
		symbol, exitLabel(reason), qty, price, pnl, pnlPct), domain.LogTypeTrade)

	m.notify(ctx, string(reason), fmt.Sprintf("SELL %s (%s)", symbol, exitLabel(reason)),
		fmt.Sprintf("Sold %d shares of %s @ $%.2f, P&L $%.2f (%+.2f%%)", qty, symbol, price, pnl, pnlPct))
}

// snapshot marks every open position to a freshly fetched price and persists
// the account and per-position snapshots.
func (m *Monitor) snapshot(ctx context.Context, logger *slog.Logger) {
	now := time.Now().UTC()

	prices := make(map[string]float64)
	for _, pos := range m.account.Positions() {
		price, err := m.quotes.CurrentPrice(ctx, pos.Symbol)
		if err != nil {
			logger.Warn("no fresh quote at snapshot, carrying last mark",
				slog.String("symbol", pos.Symbol))
			continue
		}
		prices[pos.Symbol] = price
	}
	m.account.MarkPrices(prices)

	summary := m.account.Summary()
	if err := m.snaps.InsertAccount(ctx, domain.AccountSnapshot{
		Cash:        summary.Cash,
		MarketValue: summary.MarketValue,
		TotalEquity: summary.TotalEquity,
		TotalPnL:    summary.TotalPnL,
		TotalPnLPct: summary.TotalPnLPct,
		Timestamp:   now,
	}); err != nil {
		logger.Error("failed to persist account snapshot", slog.String("error", err.Error()))
	}

	for _, pos := range m.account.Positions() {
		if err := m.snaps.InsertPosition(ctx, domain.PositionSnapshot{
			Symbol:           pos.Symbol,
			Quantity:         pos.Quantity,
			AvgPrice:         pos.AvgPrice,
			CurrentPrice:     pos.CurrentPrice,
			UnrealizedPnL:    pos.UnrealizedPnL(),
			UnrealizedPnLPct: pos.UnrealizedPnLPct(),
			Timestamp:        now,
		}); err != nil {
			logger.Error("failed to persist position snapshot",
				slog.String("symbol", pos.Symbol),
				slog.String("error", err.Error()))
		}
	}
}

// persistTrade writes an executed trade to the store. A failed write keeps
// the in-memory fill and logs the gap; the ledger is the live authority and
// the trade log catches up only via future compensating entries.
func (m *Monitor) persistTrade(ctx context.Context, trade domain.Trade) {
	if _, err := m.trades.Insert(ctx, trade); err != nil {
		m.logger.Error("failed to persist trade, keeping in-memory fill",
			slog.String("symbol", trade.Symbol),
			slog.String("action", string(trade.Action)),
			slog.String("error", err.Error()))
		m.record(ctx, fmt.Sprintf("%s: trade executed but not persisted: %v", trade.Symbol, err), domain.LogTypeError)
	}
}

func (m *Monitor) notify(ctx context.Context, event, title, message string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, event, title, message); err != nil {
		m.logger.Warn("notification failed", slog.String("error", err.Error()))
	}
}

func exitLabel(reason domain.ExitReason) string {
	switch reason {
	case domain.ExitReasonStopLoss:
		return "stop loss"
	case domain.ExitReasonTakeProfit:
		return "take profit"
	default:
		return "exit"
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Package signal evaluates per-symbol trading conditions against live prices
// and emits buy/sell signals. Thresholds trigger inside a symmetric tolerance
// band rather than on exact equality, so a polled price that lands near a
// level still fires.
package signal

import (
	"log/slog"

	"github.com/tmcgann/papertrade/internal/domain"
)

// Tolerance is the half-width of the band around every threshold price.
// A threshold T matches prices in [T*(1-Tolerance), T*(1+Tolerance)].
const Tolerance = 0.01

// Engine holds at most one trading condition per symbol.
type Engine struct {
	conditions map[string]*domain.TradingCondition
	logger     *slog.Logger
}

// NewEngine creates an empty Engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		conditions: make(map[string]*domain.TradingCondition),
		logger:     logger.With(slog.String("component", "signal")),
	}
}

func inBand(price, threshold float64) bool {
	return price >= threshold*(1-Tolerance) && price <= threshold*(1+Tolerance)
}

// Add registers or replaces the condition for cond.Symbol.
func (e *Engine) Add(cond domain.TradingCondition) {
	c := cond
	e.conditions[c.Symbol] = &c
}

// Remove deletes the condition for symbol, if present.
func (e *Engine) Remove(symbol string) {
	delete(e.conditions, symbol)
}

// Condition returns a copy of the condition for symbol, if present.
func (e *Engine) Condition(symbol string) (domain.TradingCondition, bool) {
	c, ok := e.conditions[symbol]
	if !ok {
		return domain.TradingCondition{}, false
	}
	return *c, true
}

// Symbols returns every symbol with an active condition.
func (e *Engine) Symbols() []string {
	out := make([]string, 0, len(e.conditions))
	for s := range e.conditions {
		out = append(out, s)
	}
	return out
}

// CheckEntry returns SignalBuy when symbol has a condition, is not already
// held, has an entry price, and the current price sits inside the entry band.
// Held symbols never produce an entry signal, so a position is never pyramided.
func (e *Engine) CheckEntry(symbol string, price float64) domain.Signal {
	c, ok := e.conditions[symbol]
	if !ok || c.Quantity > 0 || c.EntryPrice == nil {
		return domain.SignalNone
	}

	if inBand(price, *c.EntryPrice) {
		e.logger.Info("entry signal",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("entry", *c.EntryPrice),
		)
		return domain.SignalBuy
	}
	return domain.SignalNone
}

// CheckExit returns SignalSell with the triggering reason when symbol is held
// and the price sits inside the stop-loss or take-profit band. The stop-loss
// band is evaluated first; when a degenerate configuration makes both bands
// cover the same price, the exit is attributed to the stop-loss.
func (e *Engine) CheckExit(symbol string, price float64) (domain.Signal, domain.ExitReason) {
	c, ok := e.conditions[symbol]
	if !ok || c.Quantity == 0 {
		return domain.SignalNone, domain.ExitReasonNone
	}

	if c.StopLoss != nil && inBand(price, *c.StopLoss) {
		e.logger.Warn("stop-loss signal",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("stop_loss", *c.StopLoss),
		)
		return domain.SignalSell, domain.ExitReasonStopLoss
	}

	if c.TakeProfit != nil && inBand(price, *c.TakeProfit) {
		e.logger.Info("take-profit signal",
			slog.String("symbol", symbol),
			slog.Float64("price", price),
			slog.Float64("take_profit", *c.TakeProfit),
		)
		return domain.SignalSell, domain.ExitReasonTakeProfit
	}

	return domain.SignalNone, domain.ExitReasonNone
}

// SetQuantity records the held share count for symbol. It is the only
// quantity mutator; the monitor calls it after every fill so the engine's
// view stays equal to the account's position size.
func (e *Engine) SetQuantity(symbol string, qty int) {
	if c, ok := e.conditions[symbol]; ok {
		c.Quantity = qty
	}
}

// ReplaceAll swaps in a fresh condition set. Each new condition's quantity is
// seeded from heldQuantity so an open position stays visible to future exit
// checks across a reload.
func (e *Engine) ReplaceAll(conds []domain.TradingCondition, heldQuantity func(symbol string) int) {
	e.conditions = make(map[string]*domain.TradingCondition, len(conds))
	for _, cond := range conds {
		c := cond
		if c.EntryKind == "" {
			c.EntryKind = domain.EntryKindPrice
		}
		if c.ExitKind == "" {
			c.ExitKind = domain.ExitKindFixed
		}
		c.Quantity = heldQuantity(c.Symbol)
		e.conditions[c.Symbol] = &c
	}
}

package signal

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcgann/papertrade/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }

func newTestEngine(t *testing.T, cond domain.TradingCondition) *Engine {
	t.Helper()
	e := NewEngine(testLogger())
	e.Add(cond)
	return e
}

func TestCheckEntryBanding(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		EntryPrice: f(100),
	})

	// Band edges are inclusive at ±1%.
	assert.Equal(t, domain.SignalBuy, e.CheckEntry("AAPL", 99.00))
	assert.Equal(t, domain.SignalBuy, e.CheckEntry("AAPL", 101.00))
	assert.Equal(t, domain.SignalBuy, e.CheckEntry("AAPL", 100.00))

	assert.Equal(t, domain.SignalNone, e.CheckEntry("AAPL", 98.99))
	assert.Equal(t, domain.SignalNone, e.CheckEntry("AAPL", 101.01))
}

func TestCheckEntryUnknownSymbol(t *testing.T) {
	e := NewEngine(testLogger())
	assert.Equal(t, domain.SignalNone, e.CheckEntry("MSFT", 100))
}

func TestCheckEntryNoPyramiding(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		EntryPrice: f(100),
		Quantity:   10,
	})

	assert.Equal(t, domain.SignalNone, e.CheckEntry("AAPL", 100))
}

func TestCheckEntryNilEntryPrice(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{Symbol: "AAPL"})
	assert.Equal(t, domain.SignalNone, e.CheckEntry("AAPL", 100))
}

func TestCheckExitRequiresPosition(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:   "AAPL",
		StopLoss: f(95),
	})

	sig, reason := e.CheckExit("AAPL", 95)
	assert.Equal(t, domain.SignalNone, sig)
	assert.Equal(t, domain.ExitReasonNone, reason)
}

func TestCheckExitStopLoss(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		StopLoss:   f(95),
		TakeProfit: f(120),
		Quantity:   10,
	})

	sig, reason := e.CheckExit("AAPL", 95.5)
	assert.Equal(t, domain.SignalSell, sig)
	assert.Equal(t, domain.ExitReasonStopLoss, reason)
}

func TestCheckExitTakeProfit(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		StopLoss:   f(95),
		TakeProfit: f(120),
		Quantity:   10,
	})

	sig, reason := e.CheckExit("AAPL", 119.5)
	assert.Equal(t, domain.SignalSell, sig)
	assert.Equal(t, domain.ExitReasonTakeProfit, reason)
}

func TestCheckExitStopLossWinsOverlappingBands(t *testing.T) {
	// Degenerate configuration: stop and target within 2% of each other, so
	// both bands cover 100.5. The stop-loss must take it.
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		StopLoss:   f(100),
		TakeProfit: f(101),
		Quantity:   10,
	})

	sig, reason := e.CheckExit("AAPL", 100.5)
	assert.Equal(t, domain.SignalSell, sig)
	assert.Equal(t, domain.ExitReasonStopLoss, reason)
}

func TestCheckExitOutsideBands(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		StopLoss:   f(95),
		TakeProfit: f(120),
		Quantity:   10,
	})

	sig, reason := e.CheckExit("AAPL", 105)
	assert.Equal(t, domain.SignalNone, sig)
	assert.Equal(t, domain.ExitReasonNone, reason)
}

func TestSetQuantity(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		EntryPrice: f(100),
	})

	e.SetQuantity("AAPL", 20)
	c, ok := e.Condition("AAPL")
	require.True(t, ok)
	assert.Equal(t, 20, c.Quantity)

	// Unknown symbols are ignored.
	e.SetQuantity("MSFT", 5)
	_, ok = e.Condition("MSFT")
	assert.False(t, ok)
}

func TestReplaceAllPreservesHeldQuantities(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		EntryPrice: f(100),
		Quantity:   15,
	})

	held := map[string]int{"AAPL": 15}
	e.ReplaceAll([]domain.TradingCondition{
		{Symbol: "AAPL", EntryPrice: f(102)},
		{Symbol: "MSFT", EntryPrice: f(300)},
	}, func(symbol string) int { return held[symbol] })

	aapl, ok := e.Condition("AAPL")
	require.True(t, ok)
	assert.Equal(t, 15, aapl.Quantity, "reload must not lose the open position")
	assert.Equal(t, 102.0, *aapl.EntryPrice)

	msft, ok := e.Condition("MSFT")
	require.True(t, ok)
	assert.Equal(t, 0, msft.Quantity)

	// Held symbols stay visible to exit checks after a reload.
	assert.Equal(t, domain.SignalNone, e.CheckEntry("AAPL", 102))
}

func TestReplaceAllDefaultsKinds(t *testing.T) {
	e := NewEngine(testLogger())
	e.ReplaceAll([]domain.TradingCondition{
		{Symbol: "AAPL", EntryPrice: f(100)},
	}, func(string) int { return 0 })

	c, ok := e.Condition("AAPL")
	require.True(t, ok)
	assert.Equal(t, domain.EntryKindPrice, c.EntryKind)
	assert.Equal(t, domain.ExitKindFixed, c.ExitKind)
}

func TestReplaceAllDropsStaleSymbols(t *testing.T) {
	e := newTestEngine(t, domain.TradingCondition{
		Symbol:     "AAPL",
		EntryPrice: f(100),
	})

	e.ReplaceAll([]domain.TradingCondition{
		{Symbol: "MSFT", EntryPrice: f(300)},
	}, func(string) int { return 0 })

	_, ok := e.Condition("AAPL")
	assert.False(t, ok)
	assert.Equal(t, []string{"MSFT"}, e.Symbols())
}

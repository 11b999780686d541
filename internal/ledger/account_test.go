package ledger

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

func TestBuyDebitsCashAndOpensPosition(t *testing.T) {
	a := NewAccount(10000, testLogger())

	trade, ok := a.Buy("AAPL", 10, 100, 1)
	require.True(t, ok)

	assert.InDelta(t, 8999, a.Cash(), 1e-9)
	assert.Equal(t, domain.TradeActionBuy, trade.Action)
	assert.Equal(t, int64(1), trade.ID)

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 10, pos.Quantity)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 100, pos.CurrentPrice, 1e-9)
}

func TestBuyInsufficientFundsLeavesStateUnchanged(t *testing.T) {
	a := NewAccount(500, testLogger())

	_, ok := a.Buy("AAPL", 10, 100, 1)
	assert.False(t, ok)

	assert.InDelta(t, 500, a.Cash(), 1e-9)
	assert.Empty(t, a.Positions())
	assert.Equal(t, 0, a.Summary().NumTrades)
}

func TestBuyWeightedAverageCost(t *testing.T) {
	a := NewAccount(10000, testLogger())

	_, ok := a.Buy("AAPL", 10, 100, 0)
	require.True(t, ok)
	_, ok = a.Buy("AAPL", 10, 120, 0)
	require.True(t, ok)

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 20, pos.Quantity)
	assert.InDelta(t, 110.0, pos.AvgPrice, 1e-9)
}

func TestSellCreditsProceedsNetOfCommission(t *testing.T) {
	a := NewAccount(10000, testLogger())
	_, ok := a.Buy("AAPL", 10, 100, 0)
	require.True(t, ok)

	trade, sold := a.Sell("AAPL", 4, 110, 2)
	require.True(t, sold)
	assert.Equal(t, domain.TradeActionSell, trade.Action)

	// 9000 after the buy, plus 4*110 - 2.
	assert.InDelta(t, 9438, a.Cash(), 1e-9)

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 6, pos.Quantity)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9, "partial sell keeps the average cost")
}

func TestSellExhaustingQuantityDeletesPosition(t *testing.T) {
	a := NewAccount(10000, testLogger())
	_, ok := a.Buy("AAPL", 10, 100, 0)
	require.True(t, ok)

	_, sold := a.Sell("AAPL", 10, 105, 0)
	require.True(t, sold)

	_, held := a.Position("AAPL")
	assert.False(t, held, "closed position must be absent, not zero-quantity")
	assert.Equal(t, 0, a.Quantity("AAPL"))
}

func TestSellRejectedWithoutPosition(t *testing.T) {
	a := NewAccount(10000, testLogger())

	_, sold := a.Sell("AAPL", 5, 100, 0)
	assert.False(t, sold)
	assert.InDelta(t, 10000, a.Cash(), 1e-9)
}

func TestSellRejectedWhenOversized(t *testing.T) {
	a := NewAccount(10000, testLogger())
	_, ok := a.Buy("AAPL", 5, 100, 0)
	require.True(t, ok)

	_, sold := a.Sell("AAPL", 6, 100, 0)
	assert.False(t, sold)

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 5, pos.Quantity)
	assert.InDelta(t, 9500, a.Cash(), 1e-9)
}

func TestCashNeverNegative(t *testing.T) {
	a := NewAccount(1000, testLogger())

	buys := []struct {
		qty   int
		price float64
	}{
		{5, 100}, {4, 100}, {3, 100}, {2, 100}, {1, 100},
	}
	for _, b := range buys {
		a.Buy("AAPL", b.qty, b.price, 0.5)
		assert.GreaterOrEqual(t, a.Cash(), 0.0)
	}
}

func TestMarkPricesCarriesStaleForward(t *testing.T) {
	a := NewAccount(20000, testLogger())
	_, ok := a.Buy("AAPL", 10, 100, 0)
	require.True(t, ok)
	_, ok = a.Buy("MSFT", 10, 300, 0)
	require.True(t, ok)

	a.MarkPrices(map[string]float64{"AAPL": 110})

	aapl, _ := a.Position("AAPL")
	msft, _ := a.Position("MSFT")
	assert.InDelta(t, 110, aapl.CurrentPrice, 1e-9)
	assert.InDelta(t, 300, msft.CurrentPrice, 1e-9, "unlisted symbol keeps its last mark")
}

func TestSummaryDerivesEquityAndPnL(t *testing.T) {
	a := NewAccount(10000, testLogger())
	_, ok := a.Buy("AAPL", 10, 100, 0)
	require.True(t, ok)
	a.MarkPrices(map[string]float64{"AAPL": 120})

	s := a.Summary()
	assert.InDelta(t, 9000, s.Cash, 1e-9)
	assert.InDelta(t, 1200, s.MarketValue, 1e-9)
	assert.InDelta(t, 10200, s.TotalEquity, 1e-9)
	assert.InDelta(t, 200, s.TotalPnL, 1e-9)
	assert.InDelta(t, 2.0, s.TotalPnLPct, 1e-9)
	assert.Equal(t, 1, s.NumPositions)
	assert.Equal(t, 1, s.NumTrades)
}

func TestTradeIDsAreMonotonic(t *testing.T) {
	a := NewAccount(10000, testLogger())

	t1, _ := a.Buy("AAPL", 1, 100, 0)
	t2, _ := a.Buy("AAPL", 1, 100, 0)
	t3, _ := a.Sell("AAPL", 2, 100, 0)

	assert.Equal(t, int64(1), t1.ID)
	assert.Equal(t, int64(2), t2.ID)
	assert.Equal(t, int64(3), t3.ID)
}

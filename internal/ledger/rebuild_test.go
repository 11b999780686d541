package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcgann/papertrade/internal/domain"
)

func trade(id int64, symbol string, action domain.TradeAction, qty int, price, commission float64) domain.Trade {
	return domain.Trade{
		ID:         id,
		Symbol:     symbol,
		Action:     action,
		Quantity:   qty,
		Price:      price,
		Commission: commission,
		Timestamp:  time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
}

func TestRebuildEmptyHistory(t *testing.T) {
	a := Rebuild(100000, nil, testLogger())

	assert.InDelta(t, 100000, a.Cash(), 1e-9)
	assert.Empty(t, a.Positions())
}

func TestRebuildOpenPosition(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionBuy, 10, 100, 1),
	}

	a := Rebuild(100000, history, testLogger())

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 10, pos.Quantity)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 100, pos.CurrentPrice, 1e-9, "current price seeds to average cost")

	// 100000 - 1000 basis - 1 commission.
	assert.InDelta(t, 98999, a.Cash(), 1e-9)
}

func TestRebuildProportionalBasisReduction(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionBuy, 10, 100, 1),
		trade(2, "AAPL", domain.TradeActionSell, 5, 110, 1),
	}

	a := Rebuild(100000, history, testLogger())

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 5, pos.Quantity)
	assert.InDelta(t, 100, pos.AvgPrice, 1e-9, "basis scales down with quantity")

	// Remaining basis 500, total commission 2. Realized gains are deliberately
	// not re-derived: cash is capital minus basis minus commissions.
	assert.InDelta(t, 100000-500-2, a.Cash(), 1e-9)
}

func TestRebuildWeightedAverageAcrossBuys(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionBuy, 10, 100, 0),
		trade(2, "AAPL", domain.TradeActionBuy, 10, 120, 0),
	}

	a := Rebuild(100000, history, testLogger())

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 20, pos.Quantity)
	assert.InDelta(t, 110, pos.AvgPrice, 1e-9)
}

func TestRebuildDropsClosedSymbols(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionBuy, 10, 100, 0),
		trade(2, "AAPL", domain.TradeActionSell, 10, 120, 0),
		trade(3, "MSFT", domain.TradeActionBuy, 2, 300, 0),
	}

	a := Rebuild(100000, history, testLogger())

	_, held := a.Position("AAPL")
	assert.False(t, held)
	_, held = a.Position("MSFT")
	assert.True(t, held)
}

func TestRebuildSkipsSellWithNoPriorPosition(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionSell, 10, 100, 2),
		trade(2, "AAPL", domain.TradeActionBuy, 5, 100, 0),
	}

	a := Rebuild(100000, history, testLogger())

	pos, held := a.Position("AAPL")
	require.True(t, held)
	assert.Equal(t, 5, pos.Quantity)
	// The malformed sell's commission still counts as paid.
	assert.InDelta(t, 100000-500-2, a.Cash(), 1e-9)
}

func TestRebuildClampsOversizedSell(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionBuy, 5, 100, 0),
		trade(2, "AAPL", domain.TradeActionSell, 8, 110, 0),
	}

	a := Rebuild(100000, history, testLogger())

	_, held := a.Position("AAPL")
	assert.False(t, held, "clamped sell closes the position")
}

func TestRebuildIdempotent(t *testing.T) {
	history := []domain.Trade{
		trade(1, "AAPL", domain.TradeActionBuy, 10, 100, 1),
		trade(2, "MSFT", domain.TradeActionBuy, 3, 300, 0.9),
		trade(3, "AAPL", domain.TradeActionSell, 4, 110, 0.4),
		trade(4, "AAPL", domain.TradeActionBuy, 2, 105, 0.2),
	}

	a := Rebuild(100000, history, testLogger())
	b := Rebuild(100000, history, testLogger())

	assert.InDelta(t, a.Cash(), b.Cash(), 1e-9)
	require.Equal(t, len(a.Positions()), len(b.Positions()))
	for _, pos := range a.Positions() {
		other, held := b.Position(pos.Symbol)
		require.True(t, held)
		assert.Equal(t, pos.Quantity, other.Quantity)
		assert.InDelta(t, pos.AvgPrice, other.AvgPrice, 1e-9)
	}
}

func TestRebuildContinuesTradeIDSequence(t *testing.T) {
	history := []domain.Trade{
		trade(7, "AAPL", domain.TradeActionBuy, 1, 100, 0),
		trade(12, "AAPL", domain.TradeActionBuy, 1, 100, 0),
	}

	a := Rebuild(100000, history, testLogger())

	next, ok := a.Buy("MSFT", 1, 50, 0)
	require.True(t, ok)
	assert.Equal(t, int64(13), next.ID)
}

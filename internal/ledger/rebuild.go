package ledger

import (
	"log/slog"

	"github.com/tmcgann/papertrade/internal/domain"
)

// Rebuild reconstructs an account from a persisted trade history, oldest
// first, using average-cost accounting: a sell scales the remaining cost
// basis down by the same fraction the quantity shrinks. Symbols whose net
// quantity reaches zero are dropped. Cash is derived as initial capital minus
// the surviving cost basis minus every commission ever paid. Replaying the
// same history twice yields an identical account.
func Rebuild(initialCapital float64, trades []domain.Trade, logger *slog.Logger) *Account {
	type basis struct {
		qty  int
		cost float64
	}

	open := make(map[string]*basis)
	var totalCommission float64
	var maxID int64

	for _, t := range trades {
		if t.ID > maxID {
			maxID = t.ID
		}
		totalCommission += t.Commission

		b, ok := open[t.Symbol]
		if !ok {
			b = &basis{}
			open[t.Symbol] = b
		}

		switch t.Action {
		case domain.TradeActionBuy:
			b.qty += t.Quantity
			b.cost += float64(t.Quantity) * t.Price
		case domain.TradeActionSell:
			if b.qty <= 0 {
				logger.Warn("replay skipped sell with no prior position",
					slog.Int64("trade_id", t.ID),
					slog.String("symbol", t.Symbol),
				)
				continue
			}
			avg := b.cost / float64(b.qty)
			sold := t.Quantity
			if sold > b.qty {
				logger.Warn("replay clamped oversized sell",
					slog.Int64("trade_id", t.ID),
					slog.String("symbol", t.Symbol),
					slog.Int("held", b.qty),
					slog.Int("sold", sold),
				)
				sold = b.qty
			}
			b.qty -= sold
			if b.qty == 0 {
				b.cost = 0
			} else {
				b.cost -= float64(sold) * avg
			}
		}
	}

	acct := NewAccount(initialCapital, logger)

	var invested float64
	for symbol, b := range open {
		if b.qty <= 0 {
			continue
		}
		avg := b.cost / float64(b.qty)
		acct.positions[symbol] = &domain.Position{
			Symbol:       symbol,
			Quantity:     b.qty,
			AvgPrice:     avg,
			CurrentPrice: avg,
		}
		invested += b.cost
	}

	acct.cash = initialCapital - invested - totalCommission
	acct.nextTradeID = maxID + 1

	return acct
}

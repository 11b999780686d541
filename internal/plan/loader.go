// Package plan reads structured trading plans out of the shared database and
// turns them into monitorable conditions. The plans table is owned by the web
// layer; this package only selects from it.
package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmcgann/papertrade/internal/domain"
)

// Default exit thresholds applied when a plan omits them.
const (
	defaultStopLossRatio   = 0.95
	defaultTakeProfitRatio = 1.10
)

// Loader is a Postgres-backed domain.StrategySource.
type Loader struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLoader creates a plan loader on the given pool.
func NewLoader(pool *pgxpool.Pool, logger *slog.Logger) *Loader {
	return &Loader{
		pool:   pool,
		logger: logger.With(slog.String("component", "plan_loader")),
	}
}

// Load returns at most maxCount active plans as trading conditions, starred
// plans first. Plans without an entry price cannot be monitored and are
// skipped with a warning; missing stop or target thresholds fall back to
// entry-relative defaults.
func (l *Loader) Load(ctx context.Context, maxCount int) ([]domain.TradingCondition, error) {
	const query = `
		SELECT id, stock_symbol, stock_name, entry_price, stop_loss, take_profit, is_starred
		FROM trading_plans
		WHERE tracking_status = 'active'
		ORDER BY is_starred DESC, id ASC
		LIMIT $1`

	rows, err := l.pool.Query(ctx, query, maxCount)
	if err != nil {
		return nil, fmt.Errorf("plan: load trading plans: %w", err)
	}
	defer rows.Close()

	var conds []domain.TradingCondition
	for rows.Next() {
		var (
			id      int64
			symbol  string
			name    string
			entry   *float64
			stop    *float64
			target  *float64
			starred bool
		)
		if err := rows.Scan(&id, &symbol, &name, &entry, &stop, &target, &starred); err != nil {
			return nil, fmt.Errorf("plan: scan trading plan: %w", err)
		}

		if entry == nil || *entry <= 0 {
			l.logger.Warn("plan has no usable entry price, skipping",
				slog.Int64("plan_id", id),
				slog.String("symbol", symbol))
			continue
		}
		if stop == nil {
			v := *entry * defaultStopLossRatio
			stop = &v
			l.logger.Info("using default stop loss",
				slog.String("symbol", symbol),
				slog.Float64("stop_loss", v))
		}
		if target == nil {
			v := *entry * defaultTakeProfitRatio
			target = &v
			l.logger.Info("using default take profit",
				slog.String("symbol", symbol),
				slog.Float64("take_profit", v))
		}

		planID := id
		conds = append(conds, domain.TradingCondition{
			Symbol:     symbol,
			Name:       name,
			EntryPrice: entry,
			StopLoss:   stop,
			TakeProfit: target,
			PlanID:     &planID,
			Starred:    starred,
			EntryKind:  domain.EntryKindPrice,
			ExitKind:   domain.ExitKindFixed,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("plan: trading plan rows: %w", err)
	}

	l.logger.Info("loaded trading plans", slog.Int("count", len(conds)))
	return conds, nil
}

// Compile-time interface check.
var _ domain.StrategySource = (*Loader)(nil)

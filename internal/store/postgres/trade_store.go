package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmcgann/papertrade/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, symbol, action, quantity, price, commission, timestamp, plan_id, COALESCE(notes, '')`

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var action string
		if err := rows.Scan(
			&t.ID, &t.Symbol, &action, &t.Quantity,
			&t.Price, &t.Commission, &t.Timestamp, &t.PlanID, &t.Notes,
		); err != nil {
			return nil, err
		}
		t.Action = domain.TradeAction(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Insert appends one trade and returns the id the database assigned.
func (s *TradeStore) Insert(ctx context.Context, t domain.Trade) (int64, error) {
	const query = `
		INSERT INTO trades (symbol, action, quantity, price, commission, timestamp, plan_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id`

	ts := t.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var id int64
	err := s.pool.QueryRow(ctx, query,
		t.Symbol, string(t.Action), t.Quantity, t.Price, t.Commission,
		ts, t.PlanID, t.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert trade %s %s: %w", t.Action, t.Symbol, err)
	}
	return id, nil
}

// ListRecent returns up to limit trades, newest first.
func (s *TradeStore) ListRecent(ctx context.Context, limit int) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades ORDER BY timestamp DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent trades: %w", err)
	}
	return trades, nil
}

// ListBySymbol returns all trades for one symbol, newest first.
func (s *TradeStore) ListBySymbol(ctx context.Context, symbol string) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE symbol = $1 ORDER BY timestamp DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for %s: %w", symbol, err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades for %s: %w", symbol, err)
	}
	return trades, nil
}

// ListAll returns the complete trade history oldest first, the order needed
// to replay it into an account.
func (s *TradeStore) ListAll(ctx context.Context) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades ORDER BY timestamp ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list all trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan all trades: %w", err)
	}
	return trades, nil
}

// Stats aggregates trade counts, the buy/sell split, total commission paid,
// and the number of distinct symbols traded.
func (s *TradeStore) Stats(ctx context.Context) (domain.TradeStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE action = 'BUY'),
			COUNT(*) FILTER (WHERE action = 'SELL'),
			COALESCE(SUM(commission), 0),
			COUNT(DISTINCT symbol)
		FROM trades`

	var stats domain.TradeStats
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.TotalTrades, &stats.BuyCount, &stats.SellCount,
		&stats.TotalCommission, &stats.UniqueSymbols,
	)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("postgres: trade stats: %w", err)
	}
	return stats, nil
}

// ListBefore returns all trades strictly older than the cutoff, oldest first.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE timestamp < $1 ORDER BY timestamp ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %v: %w", before, err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades before %v: %w", before, err)
	}
	return trades, nil
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)

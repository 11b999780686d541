package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmcgann/papertrade/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// InsertAccount appends one account snapshot.
func (s *SnapshotStore) InsertAccount(ctx context.Context, snap domain.AccountSnapshot) error {
	const query = `
		INSERT INTO account_snapshots (cash, market_value, total_equity, total_pnl, total_pnl_pct, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, query,
		snap.Cash, snap.MarketValue, snap.TotalEquity,
		snap.TotalPnL, snap.TotalPnLPct, ts,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert account snapshot: %w", err)
	}
	return nil
}

// InsertPosition appends one position snapshot row.
func (s *SnapshotStore) InsertPosition(ctx context.Context, snap domain.PositionSnapshot) error {
	const query = `
		INSERT INTO position_snapshots
			(symbol, quantity, avg_price, current_price, unrealized_pnl, unrealized_pnl_pct, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, query,
		snap.Symbol, snap.Quantity, snap.AvgPrice, snap.CurrentPrice,
		snap.UnrealizedPnL, snap.UnrealizedPnLPct, ts,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert position snapshot %s: %w", snap.Symbol, err)
	}
	return nil
}

// LatestAccount returns the most recent account snapshot.
func (s *SnapshotStore) LatestAccount(ctx context.Context) (domain.AccountSnapshot, error) {
	const query = `
		SELECT cash, market_value, total_equity, total_pnl, total_pnl_pct, timestamp
		FROM account_snapshots
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`

	var snap domain.AccountSnapshot
	err := s.pool.QueryRow(ctx, query).Scan(
		&snap.Cash, &snap.MarketValue, &snap.TotalEquity,
		&snap.TotalPnL, &snap.TotalPnLPct, &snap.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountSnapshot{}, domain.ErrNotFound
		}
		return domain.AccountSnapshot{}, fmt.Errorf("postgres: latest account snapshot: %w", err)
	}
	return snap, nil
}

// EquityCurve returns equity samples in chronological order. With all set,
// the whole series is returned; otherwise the most recent limit samples are
// selected and then reordered oldest first.
func (s *SnapshotStore) EquityCurve(ctx context.Context, limit int, all bool) ([]domain.EquityPoint, error) {
	query := `SELECT timestamp, total_equity FROM account_snapshots ORDER BY timestamp ASC, id ASC`
	args := []any{}
	if !all {
		query = `
			SELECT timestamp, total_equity FROM (
				SELECT id, timestamp, total_equity
				FROM account_snapshots
				ORDER BY timestamp DESC, id DESC
				LIMIT $1
			) recent
			ORDER BY timestamp ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: equity curve: %w", err)
	}
	defer rows.Close()

	var points []domain.EquityPoint
	for rows.Next() {
		var p domain.EquityPoint
		if err := rows.Scan(&p.Timestamp, &p.TotalEquity); err != nil {
			return nil, fmt.Errorf("postgres: scan equity point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: equity curve rows: %w", err)
	}
	return points, nil
}

// ListAccountBefore returns account snapshots strictly older than the cutoff,
// oldest first.
func (s *SnapshotStore) ListAccountBefore(ctx context.Context, before time.Time) ([]domain.AccountSnapshot, error) {
	const query = `
		SELECT cash, market_value, total_equity, total_pnl, total_pnl_pct, timestamp
		FROM account_snapshots
		WHERE timestamp < $1
		ORDER BY timestamp ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list account snapshots before %v: %w", before, err)
	}
	defer rows.Close()

	var snaps []domain.AccountSnapshot
	for rows.Next() {
		var snap domain.AccountSnapshot
		if err := rows.Scan(
			&snap.Cash, &snap.MarketValue, &snap.TotalEquity,
			&snap.TotalPnL, &snap.TotalPnLPct, &snap.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan account snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: account snapshots rows: %w", err)
	}
	return snaps, nil
}

// Compile-time interface check.
var _ domain.SnapshotStore = (*SnapshotStore)(nil)

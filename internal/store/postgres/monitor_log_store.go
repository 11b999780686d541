package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmcgann/papertrade/internal/domain"
)

// MonitorLogStore implements domain.MonitorLogStore using PostgreSQL.
type MonitorLogStore struct {
	pool *pgxpool.Pool
}

// NewMonitorLogStore creates a new MonitorLogStore backed by the given pool.
func NewMonitorLogStore(pool *pgxpool.Pool) *MonitorLogStore {
	return &MonitorLogStore{pool: pool}
}

// Insert appends one audit-trail entry.
func (s *MonitorLogStore) Insert(ctx context.Context, message string, typ domain.LogType) error {
	const query = `INSERT INTO monitor_logs (message, log_type, timestamp) VALUES ($1, $2, $3)`

	_, err := s.pool.Exec(ctx, query, message, string(typ), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: insert monitor log: %w", err)
	}
	return nil
}

// ListRecent selects the newest limit entries and reverses them in memory so
// the caller receives them oldest first.
func (s *MonitorLogStore) ListRecent(ctx context.Context, limit int) ([]domain.MonitorLogEntry, error) {
	const query = `
		SELECT message, log_type, timestamp
		FROM monitor_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent monitor logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanLogRows(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ListBefore returns entries strictly older than the cutoff, oldest first.
func (s *MonitorLogStore) ListBefore(ctx context.Context, before time.Time) ([]domain.MonitorLogEntry, error) {
	const query = `
		SELECT message, log_type, timestamp
		FROM monitor_logs
		WHERE timestamp < $1
		ORDER BY timestamp ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list monitor logs before %v: %w", before, err)
	}
	defer rows.Close()

	return scanLogRows(rows)
}

func scanLogRows(rows pgx.Rows) ([]domain.MonitorLogEntry, error) {
	var entries []domain.MonitorLogEntry
	for rows.Next() {
		var e domain.MonitorLogEntry
		var typ string
		if err := rows.Scan(&e.Message, &typ, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan monitor log: %w", err)
		}
		e.Type = domain.LogType(typ)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: monitor log rows: %w", err)
	}
	return entries, nil
}

// Compile-time interface check.
var _ domain.MonitorLogStore = (*MonitorLogStore)(nil)

package domain

import (
	"context"
	"time"
)

// TradeStore persists the append-only order ledger. Rows are never updated or
// deleted; corrections happen only by appending compensating trades.
type TradeStore interface {
	// Insert appends a trade and returns its assigned id.
	Insert(ctx context.Context, t Trade) (int64, error)
	// ListRecent returns up to limit trades, newest first.
	ListRecent(ctx context.Context, limit int) ([]Trade, error)
	// ListBySymbol returns all trades for one symbol, newest first.
	ListBySymbol(ctx context.Context, symbol string) ([]Trade, error)
	// ListAll returns the complete history oldest first, for position replay.
	ListAll(ctx context.Context) ([]Trade, error)
	// Stats aggregates counts, buy/sell split, commission paid, and the
	// number of distinct symbols traded.
	Stats(ctx context.Context) (TradeStats, error)
	// ListBefore returns all trades strictly older than the cutoff, for
	// cold-storage export.
	ListBefore(ctx context.Context, before time.Time) ([]Trade, error)
}

// SnapshotStore persists the per-tick account and position time series.
type SnapshotStore interface {
	InsertAccount(ctx context.Context, s AccountSnapshot) error
	InsertPosition(ctx context.Context, s PositionSnapshot) error
	// LatestAccount returns the most recent account snapshot, or ErrNotFound
	// when no snapshot has been written yet.
	LatestAccount(ctx context.Context) (AccountSnapshot, error)
	// EquityCurve returns equity samples in chronological order. When all is
	// true every sample is returned and limit is ignored.
	EquityCurve(ctx context.Context, limit int, all bool) ([]EquityPoint, error)
	// ListAccountBefore returns account snapshots strictly older than the
	// cutoff, for cold-storage export.
	ListAccountBefore(ctx context.Context, before time.Time) ([]AccountSnapshot, error)
}

// MonitorLogStore persists the monitor's audit trail.
type MonitorLogStore interface {
	Insert(ctx context.Context, message string, typ LogType) error
	// ListRecent returns up to limit of the newest entries, reordered oldest
	// first so callers can render them chronologically.
	ListRecent(ctx context.Context, limit int) ([]MonitorLogEntry, error)
	// ListBefore returns entries strictly older than the cutoff, for
	// cold-storage export.
	ListBefore(ctx context.Context, before time.Time) ([]MonitorLogEntry, error)
}

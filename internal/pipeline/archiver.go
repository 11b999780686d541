// Package pipeline contains the scheduled background jobs that run alongside
// the monitor. The archiver exports aged rows to S3 cold storage as JSONL;
// the database keeps every row, since the trade log is the recovery
// authority and is never deleted from.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmcgann/papertrade/internal/domain"
)

// Archiver exports trades, account snapshots, and monitor logs older than the
// retention window to cold storage.
type Archiver struct {
	trades        domain.TradeStore
	snaps         domain.SnapshotStore
	logs          domain.MonitorLogStore
	blob          domain.BlobWriter
	retentionDays int
	logger        *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(
	trades domain.TradeStore,
	snaps domain.SnapshotStore,
	logs domain.MonitorLogStore,
	blob domain.BlobWriter,
	retentionDays int,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		trades:        trades,
		snaps:         snaps,
		logs:          logs,
		blob:          blob,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive pass: everything older than the retention
// cutoff is exported as one JSONL object per dataset, keyed by cutoff date.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays))

	tradeCount, err := a.archiveTrades(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pipeline: archiving trades before %v: %w", cutoff, err)
	}

	snapCount, err := a.archiveAccountSnapshots(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pipeline: archiving account snapshots before %v: %w", cutoff, err)
	}

	logCount, err := a.archiveMonitorLogs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pipeline: archiving monitor logs before %v: %w", cutoff, err)
	}

	a.logger.Info("archive run complete",
		slog.Int("trades", tradeCount),
		slog.Int("account_snapshots", snapCount),
		slog.Int("monitor_logs", logCount))
	return nil
}

// RunCron runs the archiver on a cron schedule until the context is
// cancelled. The expression uses the standard 5-field format:
// "minute hour day-of-month month day-of-week".
func (a *Archiver) RunCron(ctx context.Context, cronExpr string) error {
	a.logger.Info("archiver cron started", slog.String("cron", cronExpr))

	for {
		next, err := nextCronTime(cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("pipeline: parsing cron expression %q: %w", cronExpr, err)
		}

		a.logger.Info("archiver waiting for next trigger",
			slog.Time("next_run", next),
			slog.Duration("wait", time.Until(next)))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("archiver cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

type archivedTrade struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	Timestamp  time.Time `json:"timestamp"`
	PlanID     *int64    `json:"plan_id,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

func (a *Archiver) archiveTrades(ctx context.Context, cutoff time.Time) (int, error) {
	trades, err := a.trades.ListBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(trades) == 0 {
		return 0, nil
	}

	records := make([]any, 0, len(trades))
	for _, t := range trades {
		records = append(records, archivedTrade{
			ID:         t.ID,
			Symbol:     t.Symbol,
			Action:     string(t.Action),
			Quantity:   t.Quantity,
			Price:      t.Price,
			Commission: t.Commission,
			Timestamp:  t.Timestamp,
			PlanID:     t.PlanID,
			Notes:      t.Notes,
		})
	}
	if err := a.upload(ctx, "trades", cutoff, records); err != nil {
		return 0, err
	}
	return len(trades), nil
}

type archivedAccountSnapshot struct {
	Cash        float64   `json:"cash"`
	MarketValue float64   `json:"market_value"`
	TotalEquity float64   `json:"total_equity"`
	TotalPnL    float64   `json:"total_pnl"`
	TotalPnLPct float64   `json:"total_pnl_pct"`
	Timestamp   time.Time `json:"timestamp"`
}

func (a *Archiver) archiveAccountSnapshots(ctx context.Context, cutoff time.Time) (int, error) {
	snaps, err := a.snaps.ListAccountBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	records := make([]any, 0, len(snaps))
	for _, s := range snaps {
		records = append(records, archivedAccountSnapshot{
			Cash:        s.Cash,
			MarketValue: s.MarketValue,
			TotalEquity: s.TotalEquity,
			TotalPnL:    s.TotalPnL,
			TotalPnLPct: s.TotalPnLPct,
			Timestamp:   s.Timestamp,
		})
	}
	if err := a.upload(ctx, "account_snapshots", cutoff, records); err != nil {
		return 0, err
	}
	return len(snaps), nil
}

type archivedLogEntry struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *Archiver) archiveMonitorLogs(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := a.logs.ListBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	records := make([]any, 0, len(entries))
	for _, e := range entries {
		records = append(records, archivedLogEntry{
			Message:   e.Message,
			Type:      string(e.Type),
			Timestamp: e.Timestamp,
		})
	}
	if err := a.upload(ctx, "monitor_logs", cutoff, records); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// upload serialises records as JSONL and writes them to a date-keyed object.
func (a *Archiver) upload(ctx context.Context, dataset string, cutoff time.Time, records []any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode %s record: %w", dataset, err)
		}
	}

	path := fmt.Sprintf("archive/%s/%s.jsonl", dataset, cutoff.Format("2006-01-02"))
	if err := a.blob.Put(ctx, path, buf.Bytes(), "application/x-ndjson"); err != nil {
		return err
	}

	a.logger.Info("uploaded archive object",
		slog.String("path", path),
		slog.Int("records", len(records)))
	return nil
}

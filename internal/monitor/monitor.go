// Package monitor implements the periodic monitoring and execution engine. A
// single Monitor owns the signal engine and the virtual account, drives the
// polling tick, and exposes the control surface consumed by the web layer.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tmcgann/papertrade/internal/domain"
	"github.com/tmcgann/papertrade/internal/ledger"
	"github.com/tmcgann/papertrade/internal/signal"
)

// Notifier delivers trade event alerts to external channels. A nil Notifier
// disables alerting.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the monitor's tunable parameters.
type Config struct {
	InitialCapital      float64
	Interval            time.Duration
	MaxSymbols          int
	MaxPositionFraction float64
	CommissionRate      float64
}

// Monitor is the process-wide orchestrator. Construct it with New, recover
// persisted state with Recover, then Start it. Exactly one tick runs at a
// time; scheduled ticks, manual triggers, and condition reloads all serialize
// behind the tick lock.
type Monitor struct {
	cfg      Config
	quotes   domain.QuoteSource
	plans    domain.StrategySource
	trades   domain.TradeStore
	snaps    domain.SnapshotStore
	logs     domain.MonitorLogStore
	notifier Notifier
	logger   *slog.Logger

	engine  *signal.Engine
	account *ledger.Account

	// tickMu guards the engine and account as well as tick execution.
	tickMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New wires a Monitor from its collaborators. The account starts empty;
// call Recover before Start to replay persisted history into it.
func New(
	cfg Config,
	quotes domain.QuoteSource,
	plans domain.StrategySource,
	trades domain.TradeStore,
	snaps domain.SnapshotStore,
	logs domain.MonitorLogStore,
	notifier Notifier,
	logger *slog.Logger,
) *Monitor {
	l := logger.With(slog.String("component", "monitor"))
	return &Monitor{
		cfg:      cfg,
		quotes:   quotes,
		plans:    plans,
		trades:   trades,
		snaps:    snaps,
		logs:     logs,
		notifier: notifier,
		logger:   l,
		engine:   signal.NewEngine(logger),
		account:  ledger.NewAccount(cfg.InitialCapital, logger),
	}
}

// Recover rebuilds the virtual account by replaying the full persisted trade
// history oldest first, then seeds current prices for surviving positions
// from live quotes. Recovery is best-effort: a failed history read leaves the
// account empty, and a failed quote leaves that position marked at its
// average cost. Running Recover twice from the same history yields the same
// state.
func (m *Monitor) Recover(ctx context.Context) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	history, err := m.trades.ListAll(ctx)
	if err != nil {
		m.logger.Error("failed to load trade history, starting from empty account",
			slog.String("error", err.Error()))
		m.record(ctx, fmt.Sprintf("state recovery failed: %v", err), domain.LogTypeError)
		return
	}

	m.account = ledger.Rebuild(m.cfg.InitialCapital, history, m.logger)

	prices := make(map[string]float64)
	for _, pos := range m.account.Positions() {
		price, err := m.quotes.CurrentPrice(ctx, pos.Symbol)
		if err != nil {
			m.logger.Warn("no live quote during recovery, marking at average cost",
				slog.String("symbol", pos.Symbol),
				slog.String("error", err.Error()))
			continue
		}
		prices[pos.Symbol] = price
	}
	m.account.MarkPrices(prices)

	summary := m.account.Summary()
	m.record(ctx, fmt.Sprintf(
		"state recovered from %d trades: %d open positions, cash %.2f",
		len(history), summary.NumPositions, summary.Cash), domain.LogTypeInfo)
}

// Start launches the polling scheduler. Calling Start while already running
// logs a warning and does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.logger.Warn("monitor already running, start ignored")
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(ctx, m.stopCh, m.done)

	m.logger.Info("monitor started", slog.Duration("interval", m.cfg.Interval))
	m.record(ctx, fmt.Sprintf("monitor started, polling every %s", m.cfg.Interval), domain.LogTypeSuccess)
}

// Stop cancels the scheduler. An in-flight tick is allowed to finish. Calling
// Stop while already stopped logs a warning and does nothing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Warn("monitor not running, stop ignored")
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
	m.logger.Info("monitor stopped")
	m.record(context.Background(), "monitor stopped", domain.LogTypeInfo)
}

// Running reports whether the scheduler is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	// First evaluation runs immediately rather than one interval in.
	if err := m.runTick(ctx); err != nil && !errors.Is(err, domain.ErrTickInProgress) {
		m.logger.Error("tick failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.runTick(ctx); err != nil {
				if errors.Is(err, domain.ErrTickInProgress) {
					m.logger.Warn("previous tick still running, skipping this interval")
					continue
				}
				m.logger.Error("tick failed", slog.String("error", err.Error()))
			}
		}
	}
}

// TriggerNow runs one full tick inline, valid whether or not the scheduler is
// running. It returns ErrTickInProgress when a tick is already executing.
func (m *Monitor) TriggerNow(ctx context.Context) error {
	m.logger.Info("manual tick triggered")
	return m.runTick(ctx)
}

// Reload refreshes the condition set from the strategy source outside the
// tick cycle, preserving held quantities.
func (m *Monitor) Reload(ctx context.Context) error {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	conds, err := m.plans.Load(ctx, m.cfg.MaxSymbols)
	if err != nil {
		return fmt.Errorf("monitor: reload conditions: %w", err)
	}
	m.engine.ReplaceAll(conds, m.account.Quantity)
	m.record(ctx, fmt.Sprintf("reloaded %d trading conditions", len(conds)), domain.LogTypeInfo)
	return nil
}

// AccountSummary returns the current derived account valuation.
func (m *Monitor) AccountSummary() domain.AccountSummary {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()
	return m.account.Summary()
}

// Positions returns copies of all open positions.
func (m *Monitor) Positions() []domain.Position {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()
	return m.account.Positions()
}

// Trades returns up to limit persisted trades, newest first.
func (m *Monitor) Trades(ctx context.Context, limit int) ([]domain.Trade, error) {
	return m.trades.ListRecent(ctx, limit)
}

// Logs returns up to limit of the newest audit-trail entries, oldest first.
func (m *Monitor) Logs(ctx context.Context, limit int) ([]domain.MonitorLogEntry, error) {
	return m.logs.ListRecent(ctx, limit)
}

// Stats returns aggregate trading statistics.
func (m *Monitor) Stats(ctx context.Context) (domain.TradeStats, error) {
	return m.trades.Stats(ctx)
}

// EquityCurveLimit is how many samples a default-range equity curve returns.
const EquityCurveLimit = 100

// EquityCurve returns the persisted equity series. rng is "all" for the
// complete history, anything else for the most recent EquityCurveLimit
// samples. Points come back oldest first either way.
func (m *Monitor) EquityCurve(ctx context.Context, rng string) ([]domain.EquityPoint, error) {
	return m.snaps.EquityCurve(ctx, EquityCurveLimit, rng == "all")
}

// record writes one audit-trail entry to both the log store and the
// structured logger. Store failures are logged and swallowed.
func (m *Monitor) record(ctx context.Context, message string, typ domain.LogType) {
	switch typ {
	case domain.LogTypeError:
		m.logger.Error(message)
	case domain.LogTypeWarning:
		m.logger.Warn(message)
	default:
		m.logger.Info(message, slog.String("log_type", string(typ)))
	}
	if err := m.logs.Insert(ctx, message, typ); err != nil {
		m.logger.Error("failed to persist monitor log",
			slog.String("error", err.Error()))
	}
}

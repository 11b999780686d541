package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/tmcgann/papertrade/internal/blob/s3"
	"github.com/tmcgann/papertrade/internal/cache/redis"
	"github.com/tmcgann/papertrade/internal/config"
	"github.com/tmcgann/papertrade/internal/domain"
	"github.com/tmcgann/papertrade/internal/monitor"
	"github.com/tmcgann/papertrade/internal/notify"
	"github.com/tmcgann/papertrade/internal/pipeline"
	"github.com/tmcgann/papertrade/internal/plan"
	"github.com/tmcgann/papertrade/internal/quote"
	"github.com/tmcgann/papertrade/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	TradeStore domain.TradeStore
	SnapStore  domain.SnapshotStore
	LogStore   domain.MonitorLogStore

	Quotes   domain.QuoteSource
	Plans    domain.StrategySource
	Notifier *notify.Notifier

	Monitor  *monitor.Monitor
	Archiver *pipeline.Archiver
}

// needsS3 reports whether the mode requires object storage.
func needsS3(cfg *config.Config) bool {
	switch cfg.Mode {
	case "archive":
		return true
	case "full":
		return cfg.Archive.Enabled
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to call on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.TradeStore = postgres.NewTradeStore(pool)
	deps.SnapStore = postgres.NewSnapshotStore(pool)
	deps.LogStore = postgres.NewMonitorLogStore(pool)
	deps.Plans = plan.NewLoader(pool, logger)

	// --- Quote source ---
	tz, err := time.LoadLocation(cfg.Quote.Timezone)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: load timezone %q: %w", cfg.Quote.Timezone, err)
	}
	deps.Quotes = quote.NewClient(quote.ClientConfig{
		BaseURL:   cfg.Quote.BaseURL,
		Timeout:   cfg.Quote.Timeout.Duration,
		Timezone:  tz,
		OpenHour:  cfg.Quote.OpenHour,
		CloseHour: cfg.Quote.CloseHour,
	})

	// --- Redis quote cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cache := redis.NewQuoteCache(redisClient, cfg.Quote.CacheTTL.Duration)
		deps.Quotes = quote.NewCachedSource(deps.Quotes, cache, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Monitor ---
	deps.Monitor = monitor.New(
		monitor.Config{
			InitialCapital:      cfg.Account.InitialCapital,
			Interval:            cfg.Monitor.Interval.Duration,
			MaxSymbols:          cfg.Monitor.MaxSymbols,
			MaxPositionFraction: cfg.Monitor.MaxPositionFraction,
			CommissionRate:      cfg.Account.CommissionRate,
		},
		deps.Quotes,
		deps.Plans,
		deps.TradeStore,
		deps.SnapStore,
		deps.LogStore,
		deps.Notifier,
		logger,
	)

	// --- S3 + archiver (only for modes that export to cold storage) ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = pipeline.NewArchiver(
			deps.TradeStore,
			deps.SnapStore,
			deps.LogStore,
			s3blob.NewWriter(s3Client),
			cfg.Archive.RetentionDays,
			logger,
		)
	}

	return deps, cleanup, nil
}

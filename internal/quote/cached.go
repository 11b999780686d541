package quote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tmcgann/papertrade/internal/domain"
)

// CachedSource is a read-through TTL cache in front of a QuoteSource. Cache
// failures never block a quote: a broken cache degrades to direct fetches.
type CachedSource struct {
	src    domain.QuoteSource
	cache  domain.QuoteCache
	logger *slog.Logger
}

// NewCachedSource wraps src with the given cache.
func NewCachedSource(src domain.QuoteSource, cache domain.QuoteCache, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		src:    src,
		cache:  cache,
		logger: logger.With(slog.String("component", "quote_cache")),
	}
}

// CurrentPrice returns the cached price when one is fresh, otherwise fetches
// from the underlying source and stores the result.
func (c *CachedSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := c.cache.Get(ctx, symbol)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("quote cache read failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()))
	}

	price, err = c.src.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, symbol, price); err != nil {
		c.logger.Warn("quote cache write failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()))
	}
	return price, nil
}

// MarketOpen delegates to the underlying source.
func (c *CachedSource) MarketOpen(now time.Time) bool {
	return c.src.MarketOpen(now)
}

// Compile-time interface check.
var _ domain.QuoteSource = (*CachedSource)(nil)

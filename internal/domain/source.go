package domain

import (
	"context"
	"time"
)

// QuoteSource provides live market prices and the market-hours gate. Fetches
// are synchronous; callers that cannot get a price skip the symbol until the
// next polling cycle.
type QuoteSource interface {
	// CurrentPrice returns the latest price for symbol, or
	// ErrPriceUnavailable when no quote can be obtained.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	// MarketOpen reports whether the market is trading at the given instant.
	MarketOpen(now time.Time) bool
}

// QuoteCache is a TTL cache in front of a QuoteSource. Get returns
// ErrNotFound for symbols that are missing or expired.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (float64, error)
	Set(ctx context.Context, symbol string, price float64) error
}

// StrategySource yields the structured trading conditions to monitor,
// starred entries first, at most maxCount of them. The backing plan storage
// is owned by the web layer; this subsystem only reads it.
type StrategySource interface {
	Load(ctx context.Context, maxCount int) ([]TradingCondition, error)
}

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}

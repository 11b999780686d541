package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tmcgann/papertrade/internal/domain"
)

// QuoteCache implements domain.QuoteCache with per-symbol TTL keys. Each
// price is stored at "quote:{symbol}" and expires on its own, so a symbol
// that stops trading simply falls out of the cache.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.rdb, ttl: ttl}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

// Set stores the latest price for a symbol with the cache's TTL.
func (qc *QuoteCache) Set(ctx context.Context, symbol string, price float64) error {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := qc.rdb.Set(ctx, quoteKey(symbol), val, qc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", symbol, err)
	}
	return nil
}

// Get retrieves the cached price for a symbol. It returns domain.ErrNotFound
// when the key is missing or has expired.
func (qc *QuoteCache) Get(ctx context.Context, symbol string) (float64, error) {
	val, err := qc.rdb.Get(ctx, quoteKey(symbol)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("redis: get quote %s: %w", symbol, err)
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse quote %s: %w", symbol, err)
	}
	return price, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)

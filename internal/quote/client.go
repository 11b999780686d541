// Package quote fetches live market prices over HTTP and decides whether the
// market is open for trading.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tmcgann/papertrade/internal/domain"
)

// ClientConfig holds quote endpoint and market-hours parameters.
type ClientConfig struct {
	// BaseURL is the chart API root, e.g.
	// "https://query1.finance.yahoo.com".
	BaseURL string
	Timeout time.Duration

	// Market-hours window, evaluated in Timezone. Weekends are always
	// closed; no holiday calendar is applied.
	Timezone  *time.Location
	OpenHour  int
	CloseHour int
}

// Client fetches the latest price for a symbol from a chart API.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a quote client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// chartResponse mirrors the subset of the chart API payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// CurrentPrice returns the latest traded price for symbol. Any transport,
// decode, or empty-payload failure is reported as domain.ErrPriceUnavailable
// so callers can treat all quote failures uniformly.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s?interval=1m&range=1d", url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("quote: create request %s: %w", symbol, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "papertrade/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("quote: fetch %s: %w: %v", symbol, domain.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("quote: read %s: %w: %v", symbol, domain.ErrPriceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote: fetch %s: %w: status %d", symbol, domain.ErrPriceUnavailable, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("quote: decode %s: %w: %v", symbol, domain.ErrPriceUnavailable, err)
	}
	if payload.Chart.Error != nil {
		return 0, fmt.Errorf("quote: fetch %s: %w: %s", symbol, domain.ErrPriceUnavailable, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return 0, fmt.Errorf("quote: fetch %s: %w: empty result", symbol, domain.ErrPriceUnavailable)
	}

	price := payload.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("quote: fetch %s: %w: no market price", symbol, domain.ErrPriceUnavailable)
	}
	return price, nil
}

// MarketOpen reports whether the configured trading window is active at the
// given instant: a weekday with the local hour in [OpenHour, CloseHour).
func (c *Client) MarketOpen(now time.Time) bool {
	local := now.In(c.cfg.Timezone)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := local.Hour()
	return h >= c.cfg.OpenHour && h < c.cfg.CloseHour
}

// Compile-time interface check.
var _ domain.QuoteSource = (*Client)(nil)

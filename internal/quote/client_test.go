package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcgann/papertrade/internal/domain"
)

func chartBody(price float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%g}}],"error":null}}`, price)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL})
}

func TestCurrentPrice(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chartBody(187.35))
	})

	price, err := c.CurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 187.35, price, 1e-9)
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
}

func TestCurrentPriceHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := c.CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestCurrentPriceEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	_, err := c.CurrentPrice(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestCurrentPriceAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})

	_, err := c.CurrentPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestCurrentPriceBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>rate limited</html>`)
	})

	_, err := c.CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestCurrentPriceZeroPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(0))
	})

	_, err := c.CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestCurrentPriceUnreachableHost(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := c.CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestMarketOpen(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	c := NewClient(ClientConfig{Timezone: ny, OpenHour: 9, CloseHour: 16})

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday midday", time.Date(2024, 3, 4, 12, 0, 0, 0, ny), true},       // Monday
		{"open boundary inclusive", time.Date(2024, 3, 4, 9, 0, 0, 0, ny), true},
		{"close boundary exclusive", time.Date(2024, 3, 4, 16, 0, 0, 0, ny), false},
		{"before open", time.Date(2024, 3, 4, 8, 59, 0, 0, ny), false},
		{"saturday", time.Date(2024, 3, 9, 12, 0, 0, 0, ny), false},
		{"sunday", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.MarketOpen(tc.at))
		})
	}
}

func TestMarketOpenConvertsToConfiguredZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	c := NewClient(ClientConfig{Timezone: ny, OpenHour: 9, CloseHour: 16})

	// 15:00 UTC on 2024-03-04 is 10:00 EST (DST starts the following week),
	// inside the trading window.
	at := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	assert.True(t, c.MarketOpen(at))
}

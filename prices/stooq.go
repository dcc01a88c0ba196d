// Package prices fetches daily price history. Stooq serves plain CSV with no
// API key, which makes it a dependable default source.
package prices

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/rustyeddy/sentibot/market"
)

// StooqURL is the daily-interval CSV endpoint.
const StooqURL = "https://stooq.com/q/d/l/"

// Client fetches daily bars for a ticker.
type Client struct {
	baseURL string
	hc      *http.Client
	logger  log.Logger
	now     func() time.Time
}

// Option adjusts a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// NewClient returns a Stooq-backed price client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: StooqURL,
		hc:      &http.Client{Timeout: 15 * time.Second},
		logger:  log.DefaultLogger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Daily fetches the ticker's daily history and cuts it to the requested
// period (e.g. "60d", "6mo", "1y", "max"). The returned series is guaranteed
// to have unique ascending dates with a Close on every bar; an empty series
// with a nil error means the source had no rows for the symbol.
func (c *Client) Daily(ctx context.Context, ticker, period string) (market.Series, error) {
	days, err := PeriodDays(period)
	if err != nil {
		return market.Series{}, err
	}

	u := fmt.Sprintf("%s?s=%s&i=d", c.baseURL, Symbol(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return market.Series{}, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return market.Series{}, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return market.Series{}, fmt.Errorf("price source returned status %d", resp.StatusCode)
	}

	series, err := market.ReadCSV(resp.Body)
	if err != nil {
		return market.Series{}, fmt.Errorf("parse price csv: %w", err)
	}

	if days > 0 {
		cutoff := market.Day(c.now().UTC().AddDate(0, 0, -days))
		series = series.Since(cutoff)
	}

	c.logger.Debug().Str("ticker", ticker).Int("bars", series.Len()).Msg("fetched prices")
	return series, nil
}

// Symbol maps a ticker to Stooq's naming: plain US tickers get a ".us"
// suffix, dotted symbols and indices pass through unchanged.
func Symbol(ticker string) string {
	t := strings.ToLower(strings.TrimSpace(ticker))
	if strings.Contains(t, ".") || strings.HasPrefix(t, "^") {
		return t
	}
	return t + ".us"
}

// PeriodDays converts a Yahoo-style period string to an approximate day
// count. "max" (and empty) mean no cut and return 0.
func PeriodDays(period string) (int, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if p == "" || p == "max" {
		return 0, nil
	}

	multipliers := []struct {
		suffix string
		days   int
	}{
		{"wk", 7},
		{"mo", 30},
		{"d", 1},
		{"y", 365},
	}

	for _, m := range multipliers {
		if !strings.HasSuffix(p, m.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(p, m.suffix))
		if err != nil {
			return 0, fmt.Errorf("invalid period %q", period)
		}
		return n * m.days, nil
	}

	return 0, fmt.Errorf("invalid period %q", period)
}

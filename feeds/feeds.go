// Package feeds fetches news headlines from RSS/Atom sources and normalizes
// them into timestamped items ready for sentiment scoring.
package feeds

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/phuslu/log"
)

// Some hosts reject the default Go user agent outright.
const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"

// Item is one fetched headline. ID is a stable hash of title, timestamp and
// source so re-fetches produce identical ids.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"created_at"`
	Source      string    `json:"source"`
}

// Client fetches and parses feeds. The zero value is not usable; call
// NewClient.
type Client struct {
	hc      *http.Client
	parser  *gofeed.Parser
	ua      string
	retries int
	backoff time.Duration
	logger  log.Logger
}

// Option adjusts a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRetries sets how many extra attempts a throttled feed gets.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) { c.retries = n; c.backoff = backoff }
}

// NewClient returns a feed client with browser-like headers and two retries
// on throttling responses.
func NewClient(opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: 10 * time.Second},
		parser:  gofeed.NewParser(),
		ua:      browserUA,
		retries: 2,
		backoff: time.Second,
		logger:  log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GoogleNewsURL builds a Google News RSS search URL covering the last days
// days for the given query.
func GoogleNewsURL(query string, days int) string {
	q := url.QueryEscape(fmt.Sprintf("%s when:%dd", query, days))
	return fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en", q)
}

// YahooFinanceURL builds the per-ticker Yahoo Finance headline feed URL.
func YahooFinanceURL(ticker string) string {
	return fmt.Sprintf("https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US", url.QueryEscape(ticker))
}

// Fetch pulls every feed URL, deduplicates across sources, sorts newest
// first and caps the result. A feed that fails after retries is skipped;
// fetching only errors when every feed failed.
func (c *Client) Fetch(ctx context.Context, urls []string, limitPer, cap int) ([]Item, error) {
	var items []Item
	failures := 0

	for _, u := range urls {
		batch, err := c.fetchOne(ctx, u, limitPer)
		if err != nil {
			failures++
			c.logger.Warn().Str("feed", u).Err(err).Msg("feed fetch failed")
			continue
		}
		items = append(items, batch...)
	}

	if len(urls) > 0 && failures == len(urls) {
		return nil, fmt.Errorf("all %d feeds failed", len(urls))
	}

	items = Dedupe(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if cap > 0 && len(items) > cap {
		items = items[:cap]
	}
	return items, nil
}

func (c *Client) fetchOne(ctx context.Context, feedURL string, limit int) ([]Item, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.ua)

		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			feed, err := c.parser.ParseString(string(body))
			if err != nil {
				return nil, fmt.Errorf("parse feed: %w", err)
			}
			return convert(feed, feedURL, limit), nil
		case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
			lastErr = fmt.Errorf("feed throttled: status %d", resp.StatusCode)
		default:
			return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
		}
	}

	return nil, lastErr
}

func convert(feed *gofeed.Feed, source string, limit int) []Item {
	out := make([]Item, 0, len(feed.Items))
	for _, e := range feed.Items {
		if limit > 0 && len(out) >= limit {
			break
		}

		ts := time.Now().UTC()
		if e.PublishedParsed != nil {
			ts = e.PublishedParsed.UTC()
		} else if e.UpdatedParsed != nil {
			ts = e.UpdatedParsed.UTC()
		}

		title := strings.TrimSpace(e.Title)
		out = append(out, Item{
			ID:          itemID(title, ts, source),
			Title:       title,
			Link:        strings.TrimSpace(e.Link),
			PublishedAt: ts,
			Source:      source,
		})
	}
	return out
}

func itemID(title string, ts time.Time, source string) string {
	h := sha1.Sum([]byte(title + "|" + ts.Format(time.RFC3339) + "|" + source))
	return hex.EncodeToString(h[:])
}

// Dedupe drops repeated headlines: two items with the same lowercased title
// on the same calendar day are considered duplicates, whichever feed they
// came from. The first occurrence wins.
func Dedupe(items []Item) []Item {
	type key struct {
		title string
		day   string
	}

	seen := make(map[key]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := key{
			title: strings.ToLower(strings.TrimSpace(it.Title)),
			day:   it.PublishedAt.UTC().Format("2006-01-02"),
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

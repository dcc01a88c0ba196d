// Package sec looks up company identifiers and recent filings on SEC EDGAR.
// EDGAR requires a descriptive User-Agent on every request; clients refuse to
// run without one.
package sec

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"
)

const (
	tickersURL     = "https://www.sec.gov/files/company_tickers.json"
	submissionsURL = "https://data.sec.gov/submissions/CIK%s.json"

	tickerCacheAge = 7 * 24 * time.Hour
)

// Filing is one row of a company's recent submissions.
type Filing struct {
	Form       string    `json:"form"`
	Accession  string    `json:"accession"`
	Filed      time.Time `json:"filed"`
	PrimaryDoc string    `json:"primary_doc"`
}

// Client talks to EDGAR with a disk cache for the ticker directory.
type Client struct {
	userAgent      string
	cacheDir       string
	hc             *http.Client
	logger         log.Logger
	tickersURL     string
	submissionsURL string
}

// Option adjusts a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithEndpoints overrides the EDGAR URLs (used by tests).
func WithEndpoints(tickers, submissions string) Option {
	return func(c *Client) { c.tickersURL = tickers; c.submissionsURL = submissions }
}

// NewClient returns an EDGAR client. userAgent must identify the caller,
// e.g. "sentibot/1.0 you@example.com"; cacheDir may be empty to disable the
// on-disk cache.
func NewClient(userAgent, cacheDir string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, fmt.Errorf("sec: a User-Agent is required for EDGAR requests")
	}

	c := &Client{
		userAgent:      userAgent,
		cacheDir:       cacheDir,
		hc:             &http.Client{Timeout: 15 * time.Second},
		logger:         log.DefaultLogger,
		tickersURL:     tickersURL,
		submissionsURL: submissionsURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// CIKByTicker resolves a ticker to its zero-padded 10-digit CIK. The ticker
// directory is cached on disk for a week.
func (c *Client) CIKByTicker(ctx context.Context, ticker string) (string, error) {
	entries, err := c.companyTickers(ctx)
	if err != nil {
		return "", err
	}

	want := strings.ToUpper(strings.TrimSpace(ticker))
	for _, e := range entries {
		if strings.ToUpper(e.Ticker) == want {
			return fmt.Sprintf("%010d", e.CIK), nil
		}
	}
	return "", fmt.Errorf("sec: no CIK found for ticker %q", ticker)
}

func (c *Client) companyTickers(ctx context.Context) (map[string]tickerEntry, error) {
	cachePath := ""
	if c.cacheDir != "" {
		cachePath = filepath.Join(c.cacheDir, "company_tickers.json")
		if data, ok := readCache(cachePath, tickerCacheAge); ok {
			var entries map[string]tickerEntry
			if err := json.Unmarshal(data, &entries); err == nil {
				return entries, nil
			}
		}
	}

	data, err := c.get(ctx, c.tickersURL)
	if err != nil {
		return nil, err
	}

	var entries map[string]tickerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("sec: parse ticker directory: %w", err)
	}

	if cachePath != "" {
		writeCache(cachePath, data)
	}
	return entries, nil
}

// submissionsDoc mirrors the slice-of-columns layout EDGAR serves.
type submissionsDoc struct {
	Filings struct {
		Recent struct {
			Form       []string `json:"form"`
			Accession  []string `json:"accessionNumber"`
			FilingDate []string `json:"filingDate"`
			PrimaryDoc []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// RecentFilings lists a company's most recent filings, optionally filtered by
// form type ("4", "13F-HR", ...; empty matches all), newest first, capped at
// max entries.
func (c *Client) RecentFilings(ctx context.Context, cik, formType string, max int) ([]Filing, error) {
	data, err := c.get(ctx, fmt.Sprintf(c.submissionsURL, cik))
	if err != nil {
		return nil, err
	}

	var doc submissionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sec: parse submissions: %w", err)
	}
	recent := doc.Filings.Recent

	var out []Filing
	for i := range recent.Form {
		if formType != "" && recent.Form[i] != formType {
			continue
		}
		if max > 0 && len(out) >= max {
			break
		}

		filed, err := time.ParseInLocation("2006-01-02", recent.FilingDate[i], time.UTC)
		if err != nil {
			continue
		}

		f := Filing{Form: recent.Form[i], Filed: filed}
		if i < len(recent.Accession) {
			f.Accession = recent.Accession[i]
		}
		if i < len(recent.PrimaryDoc) {
			f.PrimaryDoc = recent.PrimaryDoc[i]
		}
		out = append(out, f)
	}

	return out, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// Leave Accept-Encoding to the transport so it decompresses gzip itself.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sec: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sec: %s returned status %d", url, resp.StatusCode)
	}

	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("sec: decompress %s: %w", url, err)
		}
		defer gz.Close()
		body = gz
	}
	return io.ReadAll(body)
}

func readCache(path string, maxAge time.Duration) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if maxAge > 0 && time.Since(info.ModTime()) > maxAge {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func writeCache(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

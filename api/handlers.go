package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/feeds"
	"github.com/rustyeddy/sentibot/journal"
	"github.com/rustyeddy/sentibot/pipeline"
	"github.com/rustyeddy/sentibot/prices"
	"github.com/rustyeddy/sentibot/sec"
	"github.com/rustyeddy/sentibot/sentiment"
)

type rowJSON struct {
	Date      string  `json:"date"`
	Close     float64 `json:"close"`
	Sentiment float64 `json:"sentiment"`
	Signal    string  `json:"signal"`
	Equity    float64 `json:"equity"`
}

type statsJSON struct {
	Rows         int      `json:"rows"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	LastClose    float64  `json:"last_close"`
	LastSignal   string   `json:"last_signal"`
	EquityReturn float64  `json:"equity_return"`
	TotalReturn  *float64 `json:"total_return,omitempty"`
	CAGR         *float64 `json:"cagr,omitempty"`
	Sharpe       *float64 `json:"sharpe,omitempty"`
	MaxDrawdown  *float64 `json:"max_dd,omitempty"`
	Trades       *int     `json:"trades,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// tickers lists every ticker with a cached report in the data directory.
func (s *Server) tickers(c *gin.Context) {
	entries, err := os.ReadDir(s.cfg.Data.Dir)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"tickers": []string{}})
		return
	}

	tickers := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, "_merged.csv") {
			continue
		}
		tickers = append(tickers, strings.ToUpper(strings.TrimSuffix(name, "_merged.csv")))
	}
	c.JSON(http.StatusOK, gin.H{"tickers": tickers})
}

// data serves the per-date report for a ticker, from the CSV cache when
// present, otherwise by running the full pipeline.
func (s *Server) data(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Query("ticker")))
	if ticker == "" {
		abortError(c, http.StatusBadRequest, "MISSING_TICKER", "ticker query parameter is required")
		return
	}

	period := c.DefaultQuery("period", s.cfg.Data.Period)
	if _, err := prices.PeriodDays(period); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_PERIOD", err.Error())
		return
	}
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	cachePath := s.reportPath(ticker)
	if !refresh {
		if rows, err := journal.ReadReport(cachePath); err == nil && len(rows) > 0 {
			c.JSON(http.StatusOK, gin.H{
				"ticker": ticker,
				"period": period,
				"cached": true,
				"stats":  rowStats(rows, nil),
				"rows":   toRowJSON(rows),
			})
			return
		}
	}

	out, err := s.runPipeline(c, ticker, period)
	if err != nil {
		var fe *fetchError
		switch {
		case errors.Is(err, backtest.ErrInsufficientData):
			abortError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", err.Error())
		case errors.As(err, &fe):
			abortError(c, http.StatusBadGateway, fe.code, fe.Error())
		default:
			abortError(c, http.StatusInternalServerError, "PIPELINE_ERROR", err.Error())
		}
		return
	}

	if err := os.MkdirAll(s.cfg.Data.Dir, 0755); err == nil {
		if err := journal.WriteReport(cachePath, out.Rows); err != nil {
			s.logger.Warn().Str("path", cachePath).Err(err).Msg("report cache write failed")
		}
	}

	if s.store != nil {
		rec := journal.RunRecord{
			RunID:   journal.NewRunID(),
			Ticker:  ticker,
			Period:  period,
			Config:  out.Config,
			FeeBP:   s.cfg.Backtest.FeeBP,
			Result:  out.Result,
			Created: time.Now().UTC(),
		}
		if err := s.store.RecordRun(rec); err != nil {
			s.logger.Warn().Str("run_id", rec.RunID).Err(err).Msg("journal write failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker": ticker,
		"period": period,
		"cached": false,
		"stats":  rowStats(out.Rows, &out.Result),
		"rows":   toRowJSON(out.Rows),
	})
}

// entity serves ad-hoc daily sentiment for any news query, prices excluded.
func (s *Server) entity(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		abortError(c, http.StatusBadRequest, "MISSING_NAME", "name query parameter is required")
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(s.cfg.Feeds.WindowD)))
	if err != nil || days <= 0 {
		abortError(c, http.StatusBadRequest, "INVALID_DAYS", "days must be a positive integer")
		return
	}

	urls := []string{feeds.GoogleNewsURL(name, days)}
	items, err := s.feeds.Fetch(c.Request.Context(), urls, s.cfg.Feeds.Limit, s.cfg.Feeds.Limit)
	if err != nil {
		abortError(c, http.StatusBadGateway, "FEED_ERROR", err.Error())
		return
	}

	daily := s.scoreItems(items)

	type dayJSON struct {
		Date  string  `json:"date"`
		Mean  float64 `json:"mean"`
		Count int     `json:"count"`
	}
	out := make([]dayJSON, 0, len(daily.Dates))
	for _, d := range daily.Dates {
		out = append(out, dayJSON{
			Date:  d.Format("2006-01-02"),
			Mean:  daily.Mean[d],
			Count: daily.Count[d],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"name":  name,
		"days":  days,
		"items": len(items),
		"daily": out,
	})
}

// insiders lists a company's recent EDGAR filings, insider trades (form 4)
// by default.
func (s *Server) insiders(c *gin.Context) {
	if s.filings == nil {
		abortError(c, http.StatusServiceUnavailable, "SEC_DISABLED",
			"set sec.user_agent (or SEC_USER_AGENT) to enable EDGAR lookups")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(c.Query("ticker")))
	if ticker == "" {
		abortError(c, http.StatusBadRequest, "MISSING_TICKER", "ticker query parameter is required")
		return
	}
	form := c.DefaultQuery("form", "4")
	max, err := strconv.Atoi(c.DefaultQuery("max", "20"))
	if err != nil || max < 0 {
		abortError(c, http.StatusBadRequest, "INVALID_MAX", "max must be a non-negative integer")
		return
	}

	ctx := c.Request.Context()
	cik, err := s.filings.CIKByTicker(ctx, ticker)
	if err != nil {
		abortError(c, http.StatusBadGateway, "SEC_ERROR", err.Error())
		return
	}

	filings, err := s.filings.RecentFilings(ctx, cik, form, max)
	if err != nil {
		abortError(c, http.StatusBadGateway, "SEC_ERROR", err.Error())
		return
	}
	if filings == nil {
		filings = []sec.Filing{}
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":  ticker,
		"cik":     cik,
		"form":    form,
		"filings": filings,
	})
}

type fetchError struct {
	code string
	err  error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

func (s *Server) runPipeline(c *gin.Context, ticker, period string) (pipeline.Output, error) {
	ctx := c.Request.Context()

	urls := []string{
		feeds.GoogleNewsURL(ticker+" stock", s.cfg.Feeds.WindowD),
		feeds.YahooFinanceURL(ticker),
	}
	urls = append(urls, s.cfg.Feeds.Extra...)

	items, err := s.feeds.Fetch(ctx, urls, s.cfg.Feeds.Limit, s.cfg.Feeds.Limit)
	if err != nil {
		return pipeline.Output{}, &fetchError{code: "FEED_ERROR", err: fmt.Errorf("fetch feeds: %w", err)}
	}

	series, err := s.prices.Daily(ctx, ticker, period)
	if err != nil {
		return pipeline.Output{}, &fetchError{code: "PRICE_ERROR", err: fmt.Errorf("fetch prices: %w", err)}
	}

	return pipeline.Run(ctx, pipeline.Input{
		Daily:  s.scoreItems(items),
		Series: series,
		Config: s.cfg.Signal,
		FeeBP:  s.cfg.Backtest.FeeBP,
	})
}

func (s *Server) scoreItems(items []feeds.Item) sentiment.Daily {
	texts := make([]string, len(items))
	times := make([]time.Time, len(items))
	for i, it := range items {
		texts[i] = it.Title
		times[i] = it.PublishedAt
	}
	return sentiment.Aggregate(pipeline.Score(s.scorer, texts, times))
}

func (s *Server) reportPath(ticker string) string {
	return filepath.Join(s.cfg.Data.Dir, strings.ToLower(ticker)+"_merged.csv")
}

func toRowJSON(rows []pipeline.Row) []rowJSON {
	out := make([]rowJSON, len(rows))
	for i, r := range rows {
		out[i] = rowJSON{
			Date:      r.Date.Format("2006-01-02"),
			Close:     r.Close,
			Sentiment: r.Sentiment,
			Signal:    r.Signal,
			Equity:    r.Equity,
		}
	}
	return out
}

// rowStats summarizes report rows. res carries the backtest metrics on fresh
// runs; cached responses only have what the CSV preserves.
func rowStats(rows []pipeline.Row, res *backtest.Result) statsJSON {
	st := statsJSON{Rows: len(rows)}
	if len(rows) == 0 {
		return st
	}

	last := rows[len(rows)-1]
	st.Start = rows[0].Date.Format("2006-01-02")
	st.End = last.Date.Format("2006-01-02")
	st.LastClose = last.Close
	st.LastSignal = last.Signal
	st.EquityReturn = last.Equity - 1

	if res != nil {
		st.TotalReturn = &res.TotalReturn
		st.CAGR = &res.CAGR
		st.MaxDrawdown = &res.MaxDrawdown
		st.Trades = &res.Trades
		if !math.IsNaN(res.Sharpe) {
			st.Sharpe = &res.Sharpe
		}
	}
	return st
}

package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/config"
	"github.com/rustyeddy/sentibot/feeds"
	"github.com/rustyeddy/sentibot/journal"
	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/optimize"
	"github.com/rustyeddy/sentibot/pipeline"
	"github.com/rustyeddy/sentibot/prices"
	"github.com/rustyeddy/sentibot/sentiment"
)

func newRunCmd(rc *rootOptions) *cobra.Command {
	var (
		ticker    string
		period    string
		pricesCSV string

		buy      float64
		sell     float64
		smooth   int
		minCount int
		carry    int
		feeBP    float64

		doOptimize bool
		trainEnd   string

		noJournal bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch news and prices, generate signals, and backtest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.cfg
			if ticker != "" {
				cfg.Data.Ticker = strings.ToUpper(ticker)
			}
			if period != "" {
				cfg.Data.Period = period
			}
			if cmd.Flags().Changed("buy") {
				cfg.Signal.BuyThreshold = buy
			}
			if cmd.Flags().Changed("sell") {
				cfg.Signal.SellThreshold = sell
			}
			if cmd.Flags().Changed("smooth") {
				cfg.Signal.SmoothWindow = smooth
			}
			if cmd.Flags().Changed("min-count") {
				cfg.Signal.MinCount = minCount
			}
			if cmd.Flags().Changed("carry") {
				cfg.Signal.CarryLimit = carry
			}
			if cmd.Flags().Changed("fee") {
				cfg.Backtest.FeeBP = feeBP
			}
			if trainEnd != "" {
				cfg.Optimizer.TrainEnd = trainEnd
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()

			daily, series, err := fetchInputs(ctx, cfg, pricesCSV)
			if err != nil {
				return err
			}

			in := pipeline.Input{
				Daily:  daily,
				Series: series,
				Config: cfg.Signal,
				FeeBP:  cfg.Backtest.FeeBP,
			}
			if doOptimize || cfg.Optimizer.Enabled {
				end, err := cfg.TrainEndDate()
				if err != nil {
					return err
				}
				if end.IsZero() {
					if last, ok := series.Last(); ok {
						end = last.Date
					}
				}
				space := optimize.DefaultSpace()
				in.TrainEnd = end
				in.Space = &space
			}

			out, err := pipeline.Run(ctx, in)
			if err != nil {
				return err
			}

			if out.Best != nil {
				fmt.Printf("tuned: buy=%.2f sell=%.2f smooth=%d min-count=%d (train sharpe %s)\n",
					out.Config.BuyThreshold, out.Config.SellThreshold,
					out.Config.SmoothWindow, out.Config.MinCount, fmtSharpe(out.Best.Sharpe))
			}
			printSummary(cfg.Data.Ticker, cfg.Data.Period, out.Result)

			if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
				return err
			}
			reportPath := filepath.Join(cfg.Data.Dir, strings.ToLower(cfg.Data.Ticker)+"_merged.csv")
			if err := journal.WriteReport(reportPath, out.Rows); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("report: %s (%d rows)\n", reportPath, len(out.Rows))

			if noJournal {
				return nil
			}
			j, err := journal.NewSQLite(cfg.Journal.DBPath)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()

			rec := journal.RunRecord{
				RunID:   journal.NewRunID(),
				Ticker:  cfg.Data.Ticker,
				Period:  cfg.Data.Period,
				Config:  out.Config,
				FeeBP:   cfg.Backtest.FeeBP,
				Result:  out.Result,
				Created: time.Now().UTC(),
			}
			if err := j.RecordRun(rec); err != nil {
				return fmt.Errorf("record run: %w", err)
			}
			fmt.Printf("run: %s\n", rec.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "Ticker symbol (default from config)")
	cmd.Flags().StringVar(&period, "period", "", "Price window: 60d|6mo|1y|max")
	cmd.Flags().StringVar(&pricesCSV, "prices-csv", "", "Read prices from a local CSV instead of Stooq")

	cmd.Flags().Float64Var(&buy, "buy", 0, "Buy threshold (> 0)")
	cmd.Flags().Float64Var(&sell, "sell", 0, "Sell threshold (< 0)")
	cmd.Flags().IntVar(&smooth, "smooth", 0, "Smoothing window in trading days")
	cmd.Flags().IntVar(&minCount, "min-count", 0, "Minimum rolling headline count")
	cmd.Flags().IntVar(&carry, "carry", 0, "Forward-carry limit in trading days")
	cmd.Flags().Float64Var(&feeBP, "fee", 0, "Fee per position change, basis points")

	cmd.Flags().BoolVar(&doOptimize, "optimize", false, "Grid-search parameters on the training window first")
	cmd.Flags().StringVar(&trainEnd, "train-end", "", "Training cutoff YYYY-MM-DD (default: last bar)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Skip writing the run to the journal DB")

	return cmd
}

// fetchInputs pulls headlines and prices for the configured ticker. A local
// CSV path short-circuits the price fetch for offline runs.
func fetchInputs(ctx context.Context, cfg *config.Config, pricesCSV string) (sentiment.Daily, market.Series, error) {
	fc := feeds.NewClient()
	urls := []string{
		feeds.GoogleNewsURL(cfg.Data.Ticker+" stock", cfg.Feeds.WindowD),
		feeds.YahooFinanceURL(cfg.Data.Ticker),
	}
	urls = append(urls, cfg.Feeds.Extra...)

	items, err := fc.Fetch(ctx, urls, cfg.Feeds.Limit, cfg.Feeds.Limit)
	if err != nil {
		return sentiment.Daily{}, market.Series{}, fmt.Errorf("fetch feeds: %w", err)
	}

	// Keep the raw headlines next to the other run artifacts. A failed save
	// does not stop the run.
	if path, err := saveNews(cfg.Data.Dir, items); err != nil {
		log.DefaultLogger.Warn().Str("path", path).Err(err).Msg("news save failed")
	}

	scorer := sentiment.NewLexicon()
	texts := make([]string, len(items))
	times := make([]time.Time, len(items))
	for i, it := range items {
		texts[i] = it.Title
		times[i] = it.PublishedAt
	}
	daily := sentiment.Aggregate(pipeline.Score(scorer, texts, times))

	var series market.Series
	if pricesCSV != "" {
		series, err = market.LoadCSV(pricesCSV)
	} else {
		series, err = prices.NewClient().Daily(ctx, cfg.Data.Ticker, cfg.Data.Period)
	}
	if err != nil {
		return sentiment.Daily{}, market.Series{}, fmt.Errorf("fetch prices: %w", err)
	}
	return daily, series, nil
}

// saveNews writes the fetched headlines to <dir>/news.json.
func saveNews(dir string, items []feeds.Item) (string, error) {
	path := filepath.Join(dir, "news.json")
	return path, feeds.Save(items, path)
}

func printSummary(ticker, period string, res backtest.Result) {
	fmt.Printf(
		"%s %s | total %.2f%% | CAGR %.2f%% | sharpe %s | max DD %.2f%% | trades %d\n",
		ticker, period,
		res.TotalReturn*100,
		res.CAGR*100,
		fmtSharpe(res.Sharpe),
		res.MaxDrawdown*100,
		res.Trades,
	)
}

func fmtSharpe(s float64) string {
	if math.IsNaN(s) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", s)
}

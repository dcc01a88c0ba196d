package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentibot/optimize"
)

func newOptimizeCmd(rc *rootOptions) *cobra.Command {
	var (
		ticker    string
		period    string
		pricesCSV string
		trainEnd  string
		feeBP     float64
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Grid-search signal parameters for the best training Sharpe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.cfg
			if ticker != "" {
				cfg.Data.Ticker = strings.ToUpper(ticker)
			}
			if period != "" {
				cfg.Data.Period = period
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

			end, err := cfg.TrainEndDate()
			if err != nil {
				return err
			}
			if end.IsZero() {
				last, ok := series.Last()
				if !ok {
					return fmt.Errorf("no price data for %s", cfg.Data.Ticker)
				}
				end = last.Date
			}

			best, err := optimize.Search(ctx, daily, series, end, optimize.DefaultSpace(), cfg.Backtest.FeeBP)
			if err != nil {
				return err
			}
			if best == nil {
				fmt.Println("no configuration produced a usable Sharpe; keeping defaults")
				return nil
			}

			fmt.Printf(
				"best: buy=%.2f sell=%.2f smooth=%d min-count=%d | sharpe %s | CAGR %.2f%% | max DD %.2f%%\n",
				best.Config.BuyThreshold,
				best.Config.SellThreshold,
				best.Config.SmoothWindow,
				best.Config.MinCount,
				fmtSharpe(best.Sharpe),
				best.CAGR*100,
				best.MaxDrawdown*100,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "Ticker symbol (default from config)")
	cmd.Flags().StringVar(&period, "period", "", "Price window: 60d|6mo|1y|max")
	cmd.Flags().StringVar(&pricesCSV, "prices-csv", "", "Read prices from a local CSV instead of Stooq")
	cmd.Flags().StringVar(&trainEnd, "train-end", "", "Training cutoff YYYY-MM-DD (default: last bar)")
	cmd.Flags().Float64Var(&feeBP, "fee", 0, "Fee per position change, basis points")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentibot/journal"
)

func newJournalCmd(rc *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query stored backtest runs",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(rc.cfg.Journal.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			runs, err := j.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%s  %-6s %-4s total %7.2f%% sharpe %-5s trades %d\n",
					r.RunID, r.Ticker, r.Period,
					r.Result.TotalReturn*100, fmtSharpe(r.Result.Sharpe), r.Result.Trades)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 = all)")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(rc.cfg.Journal.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			r, err := j.GetRun(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("run:     %s\n", r.RunID)
			fmt.Printf("ticker:  %s (%s)\n", r.Ticker, r.Period)
			fmt.Printf("created: %s\n", r.Created.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("params:  buy=%.2f sell=%.2f smooth=%d min-count=%d carry=%d fee=%.1fbp\n",
				r.Config.BuyThreshold, r.Config.SellThreshold,
				r.Config.SmoothWindow, r.Config.MinCount, r.Config.CarryLimit, r.FeeBP)
			printSummary(r.Ticker, r.Period, r.Result)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

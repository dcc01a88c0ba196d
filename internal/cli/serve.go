package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentibot/api"
	"github.com/rustyeddy/sentibot/feeds"
	"github.com/rustyeddy/sentibot/journal"
	"github.com/rustyeddy/sentibot/prices"
	"github.com/rustyeddy/sentibot/sec"
	"github.com/rustyeddy/sentibot/sentiment"
)

func newServeCmd(rc *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sentiment pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			j, err := journal.NewSQLite(cfg.Journal.DBPath)
			if err != nil {
				return err
			}
			defer j.Close()

			// EDGAR stays off until the operator identifies themselves.
			var filings api.FilingLookup
			if cfg.SEC.UserAgent != "" {
				sc, err := sec.NewClient(cfg.SEC.UserAgent, cfg.SEC.CacheDir)
				if err != nil {
					return err
				}
				filings = sc
			}

			srv := api.NewServer(cfg, feeds.NewClient(), prices.NewClient(), sentiment.NewLexicon(), j, filings)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

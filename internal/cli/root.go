// Package cli assembles the sentibot command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/sentibot/config"
)

// rootOptions carries the persistent flags into every subcommand.
type rootOptions struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	rc := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sentibot",
		Short:         "Sentibot — news sentiment signals, backtests, and tuning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite journal database (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log.DefaultLogger.Level = log.ParseLevel(rc.LogLevel)

		cfg := config.Default()
		if rc.ConfigPath != "" {
			loaded, err := config.LoadFromFile(rc.ConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		applyEnv(cfg)
		if rc.DBPath != "" {
			cfg.Journal.DBPath = rc.DBPath
		}
		rc.cfg = cfg
		return nil
	}

	// Subcommands
	cmd.AddCommand(
		newRunCmd(rc),
		newOptimizeCmd(rc),
		newServeCmd(rc),
		newJournalCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("sentibot (dev)")
		},
	})

	return cmd
}

// applyEnv lets .env / environment values override the file config.
func applyEnv(cfg *config.Config) {
	if ua := os.Getenv("SEC_USER_AGENT"); ua != "" {
		cfg.SEC.UserAgent = ua
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Package config loads and validates the sentibot configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/sentibot/prices"
	"github.com/rustyeddy/sentibot/signal"
)

// Config represents the complete sentibot configuration.
type Config struct {
	Data      DataConfig      `json:"data" yaml:"data"`
	Signal    signal.Config   `json:"signal" yaml:"signal"`
	Backtest  BacktestConfig  `json:"backtest" yaml:"backtest"`
	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer"`
	Feeds     FeedsConfig     `json:"feeds" yaml:"feeds"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	SEC       SECConfig       `json:"sec" yaml:"sec"`
}

// DataConfig names what to analyze and where artifacts live.
type DataConfig struct {
	Ticker string `json:"ticker" yaml:"ticker"`
	Period string `json:"period" yaml:"period"`
	Dir    string `json:"dir" yaml:"dir"`
}

// BacktestConfig contains backtest parameters.
type BacktestConfig struct {
	FeeBP float64 `json:"fee_bp" yaml:"fee_bp"`
}

// OptimizerConfig controls the parameter grid search. TrainEnd is a
// YYYY-MM-DD date; the search only sees bars up to and including it.
type OptimizerConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	TrainEnd string `json:"train_end,omitempty" yaml:"train_end,omitempty"`
}

// FeedsConfig contains news fetching parameters.
type FeedsConfig struct {
	Limit   int      `json:"limit" yaml:"limit"`
	WindowD int      `json:"window_days" yaml:"window_days"`
	Extra   []string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ServerConfig contains HTTP API parameters.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// JournalConfig contains run persistence parameters.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// SECConfig contains EDGAR parameters. EDGAR rejects anonymous clients, so
// UserAgent must identify the operator before any sec/ call is made.
type SECConfig struct {
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	CacheDir  string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
}

// TrainEndDate parses the optimizer cutoff. A zero time means no cutoff was
// configured.
func (c *Config) TrainEndDate() (time.Time, error) {
	if c.Optimizer.TrainEnd == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", c.Optimizer.TrainEnd, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("optimizer.train_end: %w", err)
	}
	return t, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Data.Ticker == "" {
		return fmt.Errorf("data.ticker is required")
	}
	if _, err := prices.PeriodDays(c.Data.Period); err != nil {
		return fmt.Errorf("data.period: %w", err)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if err := c.Signal.Validate(); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	if c.Backtest.FeeBP < 0 {
		return fmt.Errorf("backtest.fee_bp must be non-negative")
	}
	if _, err := c.TrainEndDate(); err != nil {
		return err
	}
	if c.Feeds.Limit <= 0 {
		return fmt.Errorf("feeds.limit must be positive")
	}
	if c.Feeds.WindowD <= 0 {
		return fmt.Errorf("feeds.window_days must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults. The SEC user agent
// has no default: EDGAR access stays off until the operator sets one.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Ticker: "AAPL",
			Period: "1y",
			Dir:    "./data",
		},
		Signal: signal.Default(),
		Backtest: BacktestConfig{
			FeeBP: 5,
		},
		Optimizer: OptimizerConfig{
			Enabled: false,
		},
		Feeds: FeedsConfig{
			Limit:   200,
			WindowD: 7,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
		},
		Journal: JournalConfig{
			DBPath: "./data/journal.db",
		},
		SEC: SECConfig{
			CacheDir: "./data/sec",
		},
	}
}

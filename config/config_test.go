package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing ticker", func(c *Config) { c.Data.Ticker = "" }},
		{"bad period", func(c *Config) { c.Data.Period = "soon" }},
		{"missing data dir", func(c *Config) { c.Data.Dir = "" }},
		{"bad buy threshold", func(c *Config) { c.Signal.BuyThreshold = -0.1 }},
		{"negative fee", func(c *Config) { c.Backtest.FeeBP = -1 }},
		{"bad train end", func(c *Config) { c.Optimizer.TrainEnd = "June 1st" }},
		{"zero feed limit", func(c *Config) { c.Feeds.Limit = 0 }},
		{"zero window", func(c *Config) { c.Feeds.WindowD = 0 }},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }},
		{"missing db path", func(c *Config) { c.Journal.DBPath = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Data.Ticker = "MSFT"
	cfg.Signal.BuyThreshold = 0.1
	cfg.Optimizer.TrainEnd = "2024-06-30"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", loaded.Data.Ticker)
	assert.Equal(t, 0.1, loaded.Signal.BuyThreshold)

	end, err := loaded.TrainEndDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Data.Ticker = "SPY"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SPY", loaded.Data.Ticker)
}

func TestLoadFromFileInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  ticker: \"\"\n"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestTrainEndDateEmpty(t *testing.T) {
	t.Parallel()

	cfg := Default()
	end, err := cfg.TrainEndDate()
	require.NoError(t, err)
	assert.True(t, end.IsZero())
}

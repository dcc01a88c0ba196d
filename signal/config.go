package signal

import "fmt"

// Config holds the signal engine parameters.
type Config struct {
	// BuyThreshold enters a long position when smoothed sentiment exceeds it.
	BuyThreshold float64 `json:"buy_threshold" yaml:"buy_threshold"`
	// SellThreshold exits to flat when smoothed sentiment falls below it.
	SellThreshold float64 `json:"sell_threshold" yaml:"sell_threshold"`
	// SmoothWindow is the trailing moving-average width in trading days.
	SmoothWindow int `json:"smooth_window" yaml:"smooth_window"`
	// MinCount is the minimum rolling headline count needed to trust the
	// signal; below it the smoothed sentiment is forced to neutral.
	MinCount int `json:"min_count" yaml:"min_count"`
	// CarryLimit caps how many consecutive trading days a stale sentiment
	// value may be carried forward before resolving to neutral.
	CarryLimit int `json:"carry_limit" yaml:"carry_limit"`
}

// Default returns the parameters the original research settled on.
func Default() Config {
	return Config{
		BuyThreshold:  0.06,
		SellThreshold: -0.06,
		SmoothWindow:  3,
		MinCount:      2,
		CarryLimit:    3,
	}
}

// Validate checks the configuration before any computation runs.
func (c Config) Validate() error {
	if c.BuyThreshold <= 0 {
		return fmt.Errorf("buy_threshold must be > 0, got %v", c.BuyThreshold)
	}
	if c.SellThreshold >= 0 {
		return fmt.Errorf("sell_threshold must be < 0, got %v", c.SellThreshold)
	}
	if c.SmoothWindow < 1 {
		return fmt.Errorf("smooth_window must be >= 1, got %d", c.SmoothWindow)
	}
	if c.MinCount < 0 {
		return fmt.Errorf("min_count must be >= 0, got %d", c.MinCount)
	}
	if c.CarryLimit < 0 {
		return fmt.Errorf("carry_limit must be >= 0, got %d", c.CarryLimit)
	}
	return nil
}

// Package optimize brute-forces signal parameters on a training window and
// picks the candidate with the best Sharpe ratio.
package optimize

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/sentiment"
	"github.com/rustyeddy/sentibot/signal"
)

// Space enumerates the discrete candidate values for each searched parameter.
// The carry limit is not searched; candidates inherit it from signal.Default.
type Space struct {
	Buy      []float64 `json:"buy" yaml:"buy"`
	Sell     []float64 `json:"sell" yaml:"sell"`
	Smooth   []int     `json:"smooth" yaml:"smooth"`
	MinCount []int     `json:"min_count" yaml:"min_count"`
}

// DefaultSpace mirrors the ranges the original research searched.
func DefaultSpace() Space {
	return Space{
		Buy:      []float64{0.02, 0.03, 0.05, 0.08, 0.1},
		Sell:     []float64{-0.02, -0.03, -0.05, -0.08, -0.1},
		Smooth:   []int{2, 3, 5},
		MinCount: []int{1, 2, 3},
	}
}

// Best is the winning candidate of a grid search.
type Best struct {
	Config      signal.Config `json:"config"`
	Sharpe      float64       `json:"sharpe"`
	CAGR        float64       `json:"cagr"`
	MaxDrawdown float64       `json:"max_dd"`
}

type score struct {
	sharpe float64
	cagr   float64
	maxDD  float64
	valid  bool
}

// Search evaluates the full cartesian product of space on the price bars
// dated at or before trainEnd and returns the candidate with the strictly
// greatest Sharpe. Ties keep the first-enumerated candidate and a NaN Sharpe
// never beats a real one. A nil result (and nil error) means no candidate was
// valid; callers keep whatever defaults they already had.
//
// Candidates are scored concurrently, but the reduction is a sequential pass
// over the enumeration order, so the outcome does not depend on worker count.
func Search(ctx context.Context, daily sentiment.Daily, series market.Series, trainEnd time.Time, space Space, feeBP float64) (*Best, error) {
	train := series.Truncate(trainEnd)
	if train.Len() < 2 {
		return nil, nil
	}

	candidates := enumerate(space)
	if len(candidates) == 0 {
		return nil, nil
	}

	scores := make([]score, len(candidates))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
	}

	var wg sync.WaitGroup
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i] = evaluate(daily, train, candidates[i], feeBP)
			}
		}()
	}

	for i := range candidates {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var best *Best
	for i, s := range scores {
		if !s.valid || math.IsNaN(s.sharpe) {
			continue
		}
		if best == nil || s.sharpe > best.Sharpe {
			best = &Best{
				Config:      candidates[i],
				Sharpe:      s.sharpe,
				CAGR:        s.cagr,
				MaxDrawdown: s.maxDD,
			}
		}
	}

	return best, nil
}

// enumerate expands the cartesian product in a fixed order: buy, then sell,
// then smoothing window, then minimum count. The order is the tie-break rule,
// so it must stay stable.
func enumerate(space Space) []signal.Config {
	base := signal.Default()

	var out []signal.Config
	for _, b := range space.Buy {
		for _, s := range space.Sell {
			if b <= 0 || s >= 0 {
				continue
			}
			for _, w := range space.Smooth {
				for _, k := range space.MinCount {
					cfg := base
					cfg.BuyThreshold = b
					cfg.SellThreshold = s
					cfg.SmoothWindow = w
					cfg.MinCount = k
					out = append(out, cfg)
				}
			}
		}
	}
	return out
}

func evaluate(daily sentiment.Daily, train market.Series, cfg signal.Config, feeBP float64) score {
	records, err := signal.Generate(daily, train, cfg)
	if err != nil {
		return score{}
	}
	res, _, err := backtest.Run(train, records, feeBP)
	if err != nil {
		return score{}
	}
	return score{sharpe: res.Sharpe, cagr: res.CAGR, maxDD: res.MaxDrawdown, valid: true}
}

// Package backtest replays a Buy/Sell/Hold sequence against a daily price
// series and summarizes the outcome.
package backtest

import (
	"errors"
	"math"
	"time"

	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/signal"
)

// ErrInsufficientData is returned when the price series has fewer than two
// usable bars. It is a caller-side precondition, not something the engine
// recovers from.
var ErrInsufficientData = errors.New("backtest: price series needs at least 2 bars")

const (
	tradingDaysPerYear = 252
	daysPerYear        = 365.25
	volFloor           = 1e-12
)

// Result is the immutable summary of one backtest run. Sharpe is NaN when the
// equity curve is flat or degenerate; callers ranking results must treat NaN
// as worse than any real score.
type Result struct {
	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_dd"`
	Trades      int     `json:"trades"`
}

// Point is one day of the equity curve. Equity is a multiplier of starting
// capital; the first point is 1.0 by construction when no fee fires that day.
type Point struct {
	Date   time.Time
	Equity float64
}

// Run replays records against series, charging feeBP basis points on every
// day the position flips. Exposure is reconstructed from the action labels
// alone, so externally supplied sequences score the same way the signal
// engine's own output does.
func Run(series market.Series, records []signal.Record, feeBP float64) (Result, []Point, error) {
	n := series.Len()
	if n < 2 {
		return Result{}, nil, ErrInsufficientData
	}

	exp := exposures(records, n)
	closes := series.Closes()
	dates := series.Dates()
	fee := feeBP / 10_000

	curve := make([]Point, n)
	returns := make([]float64, n) // daily strategy returns, index 0 stays 0

	equity := 1.0
	trades := 0
	prev := 0
	for i := 0; i < n; i++ {
		r := 0.0
		if i > 0 {
			r = float64(prev) * (closes[i]/closes[i-1] - 1)
		}
		if exp[i] != prev {
			trades++
			r -= fee
		}
		prev = exp[i]

		returns[i] = r
		equity *= 1 + r
		curve[i] = Point{Date: dates[i], Equity: equity}
	}

	res := metrics(curve, returns)
	res.Trades = trades
	return res, curve, nil
}

// exposures rebuilds the binary position state from action labels with an
// idempotent state machine: a Buy while long and a Sell while flat are no-ops.
// This is intentionally separate from the hysteresis in the signal engine.
func exposures(records []signal.Record, n int) []int {
	exp := make([]int, n)
	pos := 0
	for i := 0; i < n; i++ {
		if i < len(records) {
			switch records[i].Action {
			case signal.Buy:
				if pos == 0 {
					pos = 1
				}
			case signal.Sell:
				if pos == 1 {
					pos = 0
				}
			}
		}
		exp[i] = pos
	}
	return exp
}

func metrics(curve []Point, returns []float64) Result {
	last := curve[len(curve)-1].Equity

	years := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24 / daysPerYear
	if years < 1e-9 {
		years = 1e-9
	}

	// Daily equity returns excluding the seed day.
	daily := returns[1:]
	vol := stdev(daily) * math.Sqrt(tradingDaysPerYear)

	sharpe := math.NaN()
	if vol >= volFloor {
		sharpe = mean(daily) * tradingDaysPerYear / vol
	}

	maxDD := 0.0
	peak := curve[0].Equity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := p.Equity/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}

	return Result{
		TotalReturn: last - 1,
		CAGR:        math.Pow(last, 1/years) - 1,
		Sharpe:      sharpe,
		MaxDrawdown: maxDD,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation (n-1 denominator).
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// Package pipeline wires the engine stages together: optional parameter
// search on a training window, signal generation, and a full-sample backtest.
// It is the one entry point collaborators (CLI, HTTP API) call.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/optimize"
	"github.com/rustyeddy/sentibot/sentiment"
	"github.com/rustyeddy/sentibot/signal"
)

// Input carries everything one run needs. TrainEnd and Space are optional;
// set both to enable the parameter search.
type Input struct {
	Daily  sentiment.Daily
	Series market.Series
	Config signal.Config
	FeeBP  float64

	TrainEnd time.Time
	Space    *optimize.Space
}

// Row is one per-date report line, the shape collaborators persist as CSV.
type Row struct {
	Date      time.Time
	Close     float64
	Sentiment float64
	Signal    string
	Equity    float64
}

// Output is the full result of one run. Best is nil when the search was
// disabled or found no valid candidate; Config is whichever configuration the
// final backtest actually used.
type Output struct {
	Config  signal.Config
	Records []signal.Record
	Curve   []backtest.Point
	Result  backtest.Result
	Best    *optimize.Best
	Rows    []Row
}

// Run executes the pipeline. The price series must have at least two bars;
// anything less surfaces backtest.ErrInsufficientData.
func Run(ctx context.Context, in Input) (Output, error) {
	if in.Series.Len() < 2 {
		return Output{}, backtest.ErrInsufficientData
	}

	cfg := in.Config
	if err := cfg.Validate(); err != nil {
		return Output{}, err
	}

	var best *optimize.Best
	if in.Space != nil && !in.TrainEnd.IsZero() {
		var err error
		best, err = optimize.Search(ctx, in.Daily, in.Series, in.TrainEnd, *in.Space, in.FeeBP)
		if err != nil {
			return Output{}, fmt.Errorf("grid search: %w", err)
		}
		if best != nil {
			// Winning training parameters drive the full-sample run.
			cfg = best.Config
		}
	}

	records, err := signal.Generate(in.Daily, in.Series, cfg)
	if err != nil {
		return Output{}, fmt.Errorf("generate signals: %w", err)
	}

	result, curve, err := backtest.Run(in.Series, records, in.FeeBP)
	if err != nil {
		return Output{}, fmt.Errorf("backtest: %w", err)
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			Date:      r.Date,
			Close:     in.Series.At(i).Close,
			Sentiment: r.Sentiment,
			Signal:    r.Action.String(),
			Equity:    curve[i].Equity,
		}
	}

	return Output{
		Config:  cfg,
		Records: records,
		Curve:   curve,
		Result:  result,
		Best:    best,
		Rows:    rows,
	}, nil
}

// Score runs scorer over the items' text and pairs each polarity with the
// item's timestamp, ready for daily aggregation.
func Score(scorer sentiment.Scorer, texts []string, times []time.Time) []sentiment.Observation {
	n := len(texts)
	if len(times) < n {
		n = len(times)
	}
	out := make([]sentiment.Observation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sentiment.Observation{
			Polarity: scorer.Score(texts[i]),
			Time:     times[i],
		})
	}
	return out
}

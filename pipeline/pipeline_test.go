package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/optimize"
	"github.com/rustyeddy/sentibot/sentiment"
	"github.com/rustyeddy/sentibot/signal"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func fixtures(n int) (sentiment.Daily, market.Series) {
	d := sentiment.Daily{
		Mean:  make(map[time.Time]float64),
		Count: make(map[time.Time]int),
	}
	bars := make([]market.Bar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price *= 1.005
		if i%3 == 2 {
			price *= 0.997
		}
		bars[i] = market.Bar{Date: day(i + 1), Close: price}

		d.Dates = append(d.Dates, day(i+1))
		d.Mean[day(i+1)] = 0.4
		d.Count[day(i+1)] = 3
	}
	return d, market.NewSeries(bars)
}

func TestRunProducesAlignedRows(t *testing.T) {
	t.Parallel()

	daily, series := fixtures(10)

	out, err := Run(context.Background(), Input{
		Daily:  daily,
		Series: series,
		Config: signal.Default(),
		FeeBP:  5,
	})
	require.NoError(t, err)

	require.Len(t, out.Rows, 10)
	require.Len(t, out.Records, 10)
	require.Len(t, out.Curve, 10)
	assert.Nil(t, out.Best)
	assert.Equal(t, signal.Default(), out.Config)

	for i, row := range out.Rows {
		assert.Equal(t, out.Records[i].Date, row.Date)
		assert.Equal(t, series.At(i).Close, row.Close)
		assert.Equal(t, out.Curve[i].Equity, row.Equity)
		assert.Equal(t, out.Records[i].Action.String(), row.Signal)
	}
}

func TestRunWithOptimizer(t *testing.T) {
	t.Parallel()

	daily, series := fixtures(20)
	space := optimize.DefaultSpace()

	out, err := Run(context.Background(), Input{
		Daily:    daily,
		Series:   series,
		Config:   signal.Default(),
		FeeBP:    5,
		TrainEnd: day(14),
		Space:    &space,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Best)
	assert.Equal(t, out.Best.Config, out.Config)
}

func TestRunOptimizerFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	daily, series := fixtures(20)

	// A space no candidate can satisfy: the caller-supplied config survives.
	space := optimize.Space{Buy: []float64{-1}, Sell: []float64{1}}
	cfg := signal.Default()

	out, err := Run(context.Background(), Input{
		Daily:    daily,
		Series:   series,
		Config:   cfg,
		TrainEnd: day(14),
		Space:    &space,
	})
	require.NoError(t, err)
	assert.Nil(t, out.Best)
	assert.Equal(t, cfg, out.Config)
}

func TestRunInsufficientData(t *testing.T) {
	t.Parallel()

	daily, _ := fixtures(5)
	short := market.NewSeries([]market.Bar{{Date: day(1), Close: 100}})

	_, err := Run(context.Background(), Input{Daily: daily, Series: short, Config: signal.Default()})
	assert.ErrorIs(t, err, backtest.ErrInsufficientData)
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Parallel()

	daily, series := fixtures(5)

	_, err := Run(context.Background(), Input{
		Daily:  daily,
		Series: series,
		Config: signal.Config{BuyThreshold: -1, SellThreshold: 1, SmoothWindow: 0},
	})
	assert.Error(t, err)
}

func TestScorePairsTextsWithTimes(t *testing.T) {
	t.Parallel()

	lex := sentiment.NewLexicon()
	texts := []string{"shares surge on record profit", "stock plunges on fraud"}
	times := []time.Time{day(1), day(2)}

	obs := Score(lex, texts, times)
	require.Len(t, obs, 2)
	assert.Greater(t, obs[0].Polarity, 0.0)
	assert.Less(t, obs[1].Polarity, 0.0)
	assert.Equal(t, day(1), obs[0].Time)
}

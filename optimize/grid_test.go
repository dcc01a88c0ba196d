package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/sentiment"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func trendSeries(n int) market.Series {
	bars := make([]market.Bar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		// gentle uptrend with a wiggle so volatility is nonzero
		if i%4 == 3 {
			price *= 0.995
		} else {
			price *= 1.01
		}
		bars[i] = market.Bar{Date: day(i + 1), Close: price}
	}
	return market.NewSeries(bars)
}

func bullishDaily(n int) sentiment.Daily {
	d := sentiment.Daily{
		Mean:  make(map[time.Time]float64),
		Count: make(map[time.Time]int),
	}
	for i := 0; i < n; i++ {
		d.Dates = append(d.Dates, day(i+1))
		d.Mean[day(i+1)] = 0.5
		d.Count[day(i+1)] = 5
	}
	return d
}

func TestSearchFindsCandidate(t *testing.T) {
	t.Parallel()

	series := trendSeries(20)
	daily := bullishDaily(20)

	space := Space{
		Buy:      []float64{0.05, 0.1},
		Sell:     []float64{-0.05},
		Smooth:   []int{1, 3},
		MinCount: []int{1},
	}

	best, err := Search(context.Background(), daily, series, day(20), space, 5)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.False(t, best.Sharpe != best.Sharpe, "winning Sharpe must be real")
	assert.Greater(t, best.Config.BuyThreshold, 0.0)
	assert.Less(t, best.Config.SellThreshold, 0.0)
}

func TestSearchTieKeepsFirstEnumerated(t *testing.T) {
	t.Parallel()

	series := trendSeries(15)
	daily := bullishDaily(15)

	// Sentiment is constant 0.5, so both buy thresholds trigger on the same
	// day and score identically. The first-enumerated must win.
	space := Space{
		Buy:      []float64{0.05, 0.2},
		Sell:     []float64{-0.05},
		Smooth:   []int{1},
		MinCount: []int{1},
	}

	best, err := Search(context.Background(), daily, series, day(15), space, 0)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 0.05, best.Config.BuyThreshold)
}

func TestSearchNaNNeverBeatsRealScore(t *testing.T) {
	t.Parallel()

	series := trendSeries(15)
	daily := bullishDaily(15)

	// buy=0.9 never fires: flat curve, NaN Sharpe, enumerated first.
	space := Space{
		Buy:      []float64{0.9, 0.05},
		Sell:     []float64{-0.05},
		Smooth:   []int{1},
		MinCount: []int{1},
	}

	best, err := Search(context.Background(), daily, series, day(15), space, 0)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 0.05, best.Config.BuyThreshold)
}

func TestSearchAllDegenerateYieldsNil(t *testing.T) {
	t.Parallel()

	series := trendSeries(15)
	daily := bullishDaily(15)

	space := Space{
		Buy:      []float64{0.9},
		Sell:     []float64{-0.9},
		Smooth:   []int{1},
		MinCount: []int{1},
	}

	best, err := Search(context.Background(), daily, series, day(15), space, 0)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestSearchEmptySpace(t *testing.T) {
	t.Parallel()

	best, err := Search(context.Background(), bullishDaily(10), trendSeries(10), day(10), Space{}, 0)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestSearchSignConstraintSkipsAll(t *testing.T) {
	t.Parallel()

	// Positive sell and negative buy values violate the sign constraints and
	// must all be skipped.
	space := Space{
		Buy:      []float64{-0.05, 0},
		Sell:     []float64{0.05, 0},
		Smooth:   []int{1},
		MinCount: []int{1},
	}

	best, err := Search(context.Background(), bullishDaily(10), trendSeries(10), day(10), space, 0)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestSearchShortTrainingWindow(t *testing.T) {
	t.Parallel()

	// Training slice cut to a single bar: nothing to score.
	best, err := Search(context.Background(), bullishDaily(10), trendSeries(10), day(1), DefaultSpace(), 0)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestSearchDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()

	series := trendSeries(30)
	daily := bullishDaily(30)

	a, err := Search(context.Background(), daily, series, day(30), DefaultSpace(), 5)
	require.NoError(t, err)
	b, err := Search(context.Background(), daily, series, day(30), DefaultSpace(), 5)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a, b)
}

func TestSearchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, bullishDaily(30), trendSeries(30), day(30), DefaultSpace(), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnumerateOrder(t *testing.T) {
	t.Parallel()

	space := Space{
		Buy:      []float64{0.02, 0.05},
		Sell:     []float64{-0.02},
		Smooth:   []int{2, 3},
		MinCount: []int{1},
	}

	cands := enumerate(space)
	require.Len(t, cands, 4)
	assert.Equal(t, 0.02, cands[0].BuyThreshold)
	assert.Equal(t, 2, cands[0].SmoothWindow)
	assert.Equal(t, 3, cands[1].SmoothWindow)
	assert.Equal(t, 0.05, cands[2].BuyThreshold)
}

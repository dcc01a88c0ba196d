// Package sentiment turns scored text items into a daily polarity series.
package sentiment

import (
	"sort"
	"time"

	"github.com/rustyeddy/sentibot/market"
)

// Observation is one scored text item. Polarity is in [-1, 1].
type Observation struct {
	Polarity float64
	Time     time.Time
}

// Daily is per-calendar-date mean polarity plus observation count. Dates with
// no observations are absent from the maps, not zero.
type Daily struct {
	Dates []time.Time
	Mean  map[time.Time]float64
	Count map[time.Time]int
}

// Empty reports whether the series has no observations at all.
func (d Daily) Empty() bool { return len(d.Dates) == 0 }

// Aggregate groups observations by UTC calendar date and computes the mean
// polarity and count per date. Polarities are clamped into [-1, 1] first.
func Aggregate(obs []Observation) Daily {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)

	for _, o := range obs {
		day := market.Day(o.Time)
		sums[day] += clamp(o.Polarity)
		counts[day]++
	}

	d := Daily{
		Dates: make([]time.Time, 0, len(sums)),
		Mean:  make(map[time.Time]float64, len(sums)),
		Count: counts,
	}
	for day, sum := range sums {
		d.Dates = append(d.Dates, day)
		d.Mean[day] = sum / float64(counts[day])
	}
	sort.Slice(d.Dates, func(i, j int) bool { return d.Dates[i].Before(d.Dates[j]) })

	return d
}

func clamp(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < -1 {
		return -1
	}
	return p
}

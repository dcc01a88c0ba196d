// Package market holds the daily price series and the trading calendar it
// defines. Every downstream series (sentiment, signals, equity) is indexed by
// the dates of a Series.
package market

import (
	"math"
	"sort"
	"time"
)

// Bar is one trading day of OHLCV data. Date is normalized to UTC midnight.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Series is an immutable, strictly ascending, duplicate-free sequence of daily
// bars. Its dates are the trading calendar for everything built on top of it.
type Series struct {
	bars []Bar
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewSeries builds a Series from bars in any order. Bars without a usable
// Close are dropped, dates are normalized to UTC midnight, and when two bars
// share a date the later one wins.
func NewSeries(bars []Bar) Series {
	clean := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) || b.Close <= 0 {
			continue
		}
		b.Date = Day(b.Date)
		clean = append(clean, b)
	}

	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})

	out := clean[:0]
	for _, b := range clean {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}

	return Series{bars: out}
}

func (s Series) Len() int { return len(s.bars) }

// At returns the i'th bar. Callers are expected to stay within [0, Len).
func (s Series) At(i int) Bar { return s.bars[i] }

// Bars returns a copy of the underlying bars.
func (s Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Dates returns the trading calendar as a fresh slice.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Date
	}
	return out
}

// Closes returns the close column as a fresh slice.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Truncate returns the sub-series of bars dated on or before end.
// Used to cut a training slice for parameter search.
func (s Series) Truncate(end time.Time) Series {
	end = Day(end)
	n := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Date.After(end)
	})
	out := make([]Bar, n)
	copy(out, s.bars[:n])
	return Series{bars: out}
}

// Since returns the sub-series of bars dated on or after start.
func (s Series) Since(start time.Time) Series {
	start = Day(start)
	n := sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Date.Before(start)
	})
	out := make([]Bar, len(s.bars)-n)
	copy(out, s.bars[n:])
	return Series{bars: out}
}

// First returns the earliest bar; ok is false for an empty series.
func (s Series) First() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[0], true
}

// Last returns the latest bar; ok is false for an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

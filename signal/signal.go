// Package signal converts a sparse daily sentiment series into discrete
// Buy/Sell/Hold events on the trading calendar of a price series.
package signal

import (
	"time"

	"github.com/rustyeddy/sentibot/indicators"
	"github.com/rustyeddy/sentibot/market"
	"github.com/rustyeddy/sentibot/sentiment"
)

// Action is a discrete trading instruction for one trading day.
type Action int8

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Hold"
	}
}

// ParseAction maps the serialized form back to an Action. Unknown strings
// are Hold, matching how the backtest treats anything it does not recognize.
func ParseAction(s string) Action {
	switch s {
	case "Buy":
		return Buy
	case "Sell":
		return Sell
	default:
		return Hold
	}
}

// Record is the signal engine output for one trading day.
type Record struct {
	Date      time.Time
	Sentiment float64
	Action    Action
}

// exposure targets used by the hysteresis regime
const (
	flat = 0
	long = 1
)

// Generate runs the full signal pipeline over the trading calendar defined by
// series:
//
//  1. align daily sentiment onto the calendar (pure reindex, gaps preserved)
//  2. trailing mean over SmoothWindow using only present values
//  3. force low-volume windows to neutral when a count series exists
//  4. forward-carry stale values at most CarryLimit days, never backward
//  5. hysteresis thresholds emit Buy/Sell only on regime flips
//
// An empty series yields an empty slice, not an error.
func Generate(daily sentiment.Daily, series market.Series, cfg Config) ([]Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	calendar := series.Dates()
	if len(calendar) == 0 {
		return []Record{}, nil
	}

	values, present := align(daily.Mean, calendar)
	smoothed, ok, err := indicators.RollingMean(values, present, cfg.SmoothWindow)
	if err != nil {
		return nil, err
	}

	if daily.Count != nil {
		counts := alignCounts(daily.Count, calendar)
		rolled, err := indicators.RollingSum(counts, cfg.SmoothWindow)
		if err != nil {
			return nil, err
		}
		// Not enough headlines in the window: the value (if any) becomes an
		// explicit neutral. A genuine gap stays a gap so the carry rules
		// below still apply to it.
		for i := range smoothed {
			if ok[i] && rolled[i] < cfg.MinCount {
				smoothed[i] = 0
			}
		}
	}

	resolved := indicators.ForwardFill(smoothed, ok, cfg.CarryLimit, 0)

	records := make([]Record, len(calendar))
	target := -1 // hysteresis target; -1 until a threshold first fires
	prev := flat
	for i, date := range calendar {
		s := resolved[i]
		switch {
		case s > cfg.BuyThreshold:
			target = long
		case s < cfg.SellThreshold:
			target = flat
		}

		exp := flat
		if target == long {
			exp = long
		}

		action := Hold
		if exp > prev {
			action = Buy
		} else if exp < prev {
			action = Sell
		}
		prev = exp

		records[i] = Record{Date: date, Sentiment: s, Action: action}
	}

	return records, nil
}

// align reindexes a date-keyed series onto the trading calendar. Dates absent
// from the map become gaps; dates outside the calendar are dropped.
func align(mean map[time.Time]float64, calendar []time.Time) (values []float64, present []bool) {
	values = make([]float64, len(calendar))
	present = make([]bool, len(calendar))
	for i, date := range calendar {
		if v, ok := mean[date]; ok {
			values[i] = v
			present[i] = true
		}
	}
	return values, present
}

func alignCounts(count map[time.Time]int, calendar []time.Time) []int {
	out := make([]int, len(calendar))
	for i, date := range calendar {
		out[i] = count[date] // absent dates count as zero headlines
	}
	return out
}

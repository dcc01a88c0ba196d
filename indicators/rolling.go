// Package indicators provides the rolling-window primitives used by the
// signal engine. All functions are pure and gap-aware: a value is only
// defined where the matching entry in the present mask is true.
package indicators

import "fmt"

// RollingMean computes a trailing mean of width window over a sparse series.
// Only present values inside each window contribute, so the divisor shrinks
// near the start of the series and around gaps. A window with zero present
// values yields a gap (outPresent false) rather than a zero.
func RollingMean(values []float64, present []bool, window int) (out []float64, outPresent []bool, err error) {
	if window < 1 {
		return nil, nil, fmt.Errorf("window must be >= 1, got %d", window)
	}
	if len(values) != len(present) {
		return nil, nil, fmt.Errorf("values and present length mismatch: %d vs %d", len(values), len(present))
	}

	out = make([]float64, len(values))
	outPresent = make([]bool, len(values))

	for i := range values {
		var sum float64
		var n int
		for j := i - window + 1; j <= i; j++ {
			if j < 0 || !present[j] {
				continue
			}
			sum += values[j]
			n++
		}
		if n > 0 {
			out[i] = sum / float64(n)
			outPresent[i] = true
		}
	}

	return out, outPresent, nil
}

// RollingSum computes a trailing sum of width window over a dense int series.
func RollingSum(values []int, window int) ([]int, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be >= 1, got %d", window)
	}

	out := make([]int, len(values))
	running := 0
	for i, v := range values {
		running += v
		if i >= window {
			running -= values[i-window]
		}
		out[i] = running
	}
	return out, nil
}

// ForwardFill carries the last present value forward for at most limit
// consecutive positions. Gaps beyond the limit, and gaps before the first
// present value, resolve to fallback. It never looks ahead.
func ForwardFill(values []float64, present []bool, limit int, fallback float64) []float64 {
	out := make([]float64, len(values))

	var last float64
	haveLast := false
	stale := 0

	for i := range values {
		if present[i] {
			last = values[i]
			haveLast = true
			stale = 0
			out[i] = values[i]
			continue
		}

		stale++
		if haveLast && stale <= limit {
			out[i] = last
		} else {
			out[i] = fallback
		}
	}

	return out
}

package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSeriesSortsAndDedupes(t *testing.T) {
	t.Parallel()

	s := NewSeries([]Bar{
		{Date: day(2024, 1, 3), Close: 103},
		{Date: day(2024, 1, 2), Close: 102},
		{Date: day(2024, 1, 2), Close: 102.5}, // later entry for same date wins
		{Date: day(2024, 1, 4), Close: 0},     // no usable close, dropped
		{Date: time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC), Close: 105},
	})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 5)}, s.Dates())
	assert.Equal(t, []float64{102.5, 103, 105}, s.Closes())
}

func TestSeriesTruncate(t *testing.T) {
	t.Parallel()

	s := NewSeries([]Bar{
		{Date: day(2024, 1, 2), Close: 1},
		{Date: day(2024, 1, 3), Close: 2},
		{Date: day(2024, 1, 4), Close: 3},
	})

	train := s.Truncate(day(2024, 1, 3))
	assert.Equal(t, 2, train.Len())
	last, ok := train.Last()
	assert.True(t, ok)
	assert.Equal(t, day(2024, 1, 3), last.Date)

	// Truncating must not mutate the source series.
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, 0, s.Truncate(day(2023, 12, 31)).Len())
	assert.Equal(t, 3, s.Truncate(day(2025, 1, 1)).Len())
}

func TestSeriesSince(t *testing.T) {
	t.Parallel()

	s := NewSeries([]Bar{
		{Date: day(2024, 1, 2), Close: 1},
		{Date: day(2024, 1, 3), Close: 2},
		{Date: day(2024, 1, 4), Close: 3},
	})

	tail := s.Since(day(2024, 1, 3))
	assert.Equal(t, 2, tail.Len())
	first, ok := tail.First()
	assert.True(t, ok)
	assert.Equal(t, day(2024, 1, 3), first.Date)
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"Date,Open,High,Low,Close,Volume",
		"2024-01-02,100,101,99,100.5,1200",
		"2024-01-03,100.5,102,100,101.5,900",
		"bad-date,1,2,3,4,5",
		"2024-01-04,101.5,103,101,102.5,",
	}, "\n")

	s, err := ReadCSV(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 100.5, s.At(0).Close)
	assert.Equal(t, int64(0), s.At(2).Volume)
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSeries([]Bar{
		{Date: day(2024, 1, 2), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1200},
		{Date: day(2024, 1, 3), Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 900},
	})

	var sb strings.Builder
	assert.NoError(t, s.WriteCSV(&sb))

	back, err := ReadCSV(strings.NewReader(sb.String()))
	assert.NoError(t, err)
	assert.Equal(t, s.Bars(), back.Bars())
}

func TestReadCSVEmpty(t *testing.T) {
	t.Parallel()

	s, err := ReadCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

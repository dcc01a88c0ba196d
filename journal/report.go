package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/sentibot/pipeline"
)

var reportHeader = []string{"date", "close", "sentiment", "signal", "equity"}

// WriteReport writes the per-date report rows of a run as CSV, one line per
// trading day, dates in YYYY-MM-DD.
func WriteReport(path string, rows []pipeline.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		err := w.Write([]string{
			r.Date.Format("2006-01-02"),
			fl(r.Close),
			fl(r.Sentiment),
			r.Signal,
			fl(r.Equity),
		})
		if err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) ([]pipeline.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]pipeline.Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(reportHeader) {
			return nil, fmt.Errorf("journal: report row %d has %d fields, want %d", i+1, len(rec), len(reportHeader))
		}

		date, err := time.ParseInLocation("2006-01-02", rec[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("journal: report row %d: %w", i+1, err)
		}
		closePx, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("journal: report row %d: %w", i+1, err)
		}
		sent, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("journal: report row %d: %w", i+1, err)
		}
		equity, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("journal: report row %d: %w", i+1, err)
		}

		rows = append(rows, pipeline.Row{
			Date:      date,
			Close:     closePx,
			Sentiment: sent,
			Signal:    rec[3],
			Equity:    equity,
		})
	}
	return rows, nil
}

func fl(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

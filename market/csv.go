package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// ReadCSV parses daily bars in the common Date,Open,High,Low,Close,Volume
// layout (the format Stooq serves and the format SaveCSV writes). Rows that
// fail to parse are skipped rather than failing the whole file.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return Series{}, nil
		}
		return Series{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 5 || header[0] != "Date" {
		return Series{}, fmt.Errorf("unexpected csv header %v", header)
	}

	var bars []Bar
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("read csv row: %w", err)
		}
		if len(rec) < 5 {
			continue
		}

		date, err := time.ParseInLocation(dateLayout, rec[0], time.UTC)
		if err != nil {
			continue
		}

		open, err1 := strconv.ParseFloat(rec[1], 64)
		high, err2 := strconv.ParseFloat(rec[2], 64)
		low, err3 := strconv.ParseFloat(rec[3], 64)
		closeV, err4 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		var vol int64
		if len(rec) > 5 && rec[5] != "" {
			// Stooq sometimes serves fractional volume.
			if f, err := strconv.ParseFloat(rec[5], 64); err == nil {
				vol = int64(f)
			}
		}

		bars = append(bars, Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeV,
			Volume: vol,
		})
	}

	return NewSeries(bars), nil
}

// LoadCSV reads a Series from a file on disk.
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes the series in the same layout ReadCSV accepts.
func (s Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Date", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return err
	}
	for _, b := range s.bars {
		rec := []string{
			b.Date.Format(dateLayout),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the series to a file on disk.
func (s Series) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create price csv: %w", err)
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package journal

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/sentibot/backtest"
	"github.com/rustyeddy/sentibot/signal"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	period TEXT NOT NULL,
	buy_threshold REAL NOT NULL,
	sell_threshold REAL NOT NULL,
	smooth_window INTEGER NOT NULL,
	min_count INTEGER NOT NULL,
	carry_limit INTEGER NOT NULL,
	fee_bp REAL NOT NULL,
	total_return REAL NOT NULL,
	cagr REAL NOT NULL,
	sharpe REAL,
	max_dd REAL NOT NULL,
	trades INTEGER NOT NULL,
	created DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_ticker ON runs(ticker);
`

// SQLite stores run records in a single-file database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// RecordRun inserts one run. A NaN Sharpe is stored as NULL.
func (j *SQLite) RecordRun(r RunRecord) error {
	var sharpe any
	if r.Result.Sharpe == r.Result.Sharpe { // not NaN
		sharpe = r.Result.Sharpe
	}

	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, ticker, period, buy_threshold, sell_threshold, smooth_window,
		 min_count, carry_limit, fee_bp, total_return, cagr, sharpe, max_dd, trades, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Ticker, r.Period,
		r.Config.BuyThreshold, r.Config.SellThreshold, r.Config.SmoothWindow,
		r.Config.MinCount, r.Config.CarryLimit, r.FeeBP,
		r.Result.TotalReturn, r.Result.CAGR, sharpe, r.Result.MaxDrawdown,
		r.Result.Trades, r.Created,
	)
	return err
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`
		SELECT run_id, ticker, period, buy_threshold, sell_threshold, smooth_window,
		       min_count, carry_limit, fee_bp, total_return, cagr, sharpe, max_dd, trades, created
		FROM runs
		WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first. limit <= 0 lists all.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.Query(`
		SELECT run_id, ticker, period, buy_threshold, sell_threshold, smooth_window,
		       min_count, carry_limit, fee_bp, total_return, cagr, sharpe, max_dd, trades, created
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var rec RunRecord
	var cfg signal.Config
	var res backtest.Result
	var sharpe sql.NullFloat64
	var created time.Time

	err := s.Scan(
		&rec.RunID, &rec.Ticker, &rec.Period,
		&cfg.BuyThreshold, &cfg.SellThreshold, &cfg.SmoothWindow,
		&cfg.MinCount, &cfg.CarryLimit, &rec.FeeBP,
		&res.TotalReturn, &res.CAGR, &sharpe, &res.MaxDrawdown, &res.Trades,
		&created,
	)
	if err != nil {
		return RunRecord{}, err
	}

	if sharpe.Valid {
		res.Sharpe = sharpe.Float64
	} else {
		res.Sharpe = math.NaN()
	}

	rec.Config = cfg
	rec.Result = res
	rec.Created = created
	return rec, nil
}

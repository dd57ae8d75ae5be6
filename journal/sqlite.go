package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/portfolio"
)

// SQLiteJournal stores run results in a single SQLite file, one row per
// trade and equity point, keyed by run ID so many runs share a database.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, strategy, start_date, end_date, initial_cash, final_equity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Strategy, r.Start, r.End, r.InitialCash, r.FinalEquity, r.CreatedAt,
	)
	return err
}

func (j *SQLiteJournal) RecordTrade(runID string, t portfolio.TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, date, ticker, kind, shares, price, value, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Date, t.Ticker, string(t.Kind), t.Shares, t.Price, t.Value, t.Cost,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(runID string, p backtest.EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, date, equity) VALUES (?, ?, ?)`,
		runID, p.Date, p.Value,
	)
	return err
}

// GetRun returns the metadata row for one run.
func (j *SQLiteJournal) GetRun(runID string) (Run, error) {
	var r Run
	row := j.db.QueryRow(`
		SELECT run_id, strategy, start_date, end_date, initial_cash, final_equity, created_at
		FROM runs WHERE run_id = ?`, runID)

	err := row.Scan(&r.ID, &r.Strategy, &r.Start, &r.End, &r.InitialCash, &r.FinalEquity, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListTrades returns a run's trades in execution order.
func (j *SQLiteJournal) ListTrades(runID string) ([]portfolio.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT date, ticker, kind, shares, price, value, cost
		FROM trades WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.TradeRecord
	for rows.Next() {
		var t portfolio.TradeRecord
		var kind string
		if err := rows.Scan(&t.Date, &t.Ticker, &kind, &t.Shares, &t.Price, &t.Value, &t.Cost); err != nil {
			return nil, err
		}
		t.Kind = portfolio.Kind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve in date order.
func (j *SQLiteJournal) ListEquity(runID string) (backtest.EquityCurve, error) {
	rows, err := j.db.Query(`
		SELECT date, equity FROM equity WHERE run_id = ? ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out backtest.EquityCurve
	for rows.Next() {
		var p backtest.EquityPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

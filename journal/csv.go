package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/portfolio"
)

// CSVJournal appends run results to a trades file and an equity file.
// Run metadata travels as a run_id column on every row.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"run_id", "date", "ticker", "kind", "shares", "price", "value", "cost"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "date", "equity"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

// RecordRun is a no-op for CSV output; the run ID on each row is the only
// metadata the flat files carry.
func (j *CSVJournal) RecordRun(Run) error { return nil }

func (j *CSVJournal) RecordTrade(runID string, t portfolio.TradeRecord) error {
	err := j.trades.Write([]string{
		runID,
		t.Date.Format(time.DateOnly),
		t.Ticker,
		string(t.Kind),
		f(t.Shares),
		f(t.Price),
		f(t.Value),
		f(t.Cost),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(runID string, p backtest.EquityPoint) error {
	err := j.equity.Write([]string{
		runID,
		p.Date.Format(time.DateOnly),
		f(p.Value),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// Package journal persists finished backtest results: the run metadata,
// its trade log and its equity curve. Intermediate engine state is never
// journaled; a run cannot be resumed, only re-run.
package journal

import (
	"time"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/portfolio"
)

// Run identifies one completed backtest.
type Run struct {
	ID          string // ULID, time-sortable
	Strategy    string
	Start       time.Time
	End         time.Time
	InitialCash float64
	FinalEquity float64
	CreatedAt   time.Time
}

// Journal is the persistence contract for run results.
type Journal interface {
	RecordRun(Run) error
	RecordTrade(runID string, t portfolio.TradeRecord) error
	RecordEquity(runID string, p backtest.EquityPoint) error
	Close() error
}

// WriteResult records a whole run through any journal backend: the run row,
// every trade in execution order, then the equity curve in date order.
func WriteResult(j Journal, run Run, res backtest.Result) error {
	if err := j.RecordRun(run); err != nil {
		return err
	}
	for _, t := range res.Trades {
		if err := j.RecordTrade(run.ID, t); err != nil {
			return err
		}
	}
	for _, p := range res.EquityCurve {
		if err := j.RecordEquity(run.ID, p); err != nil {
			return err
		}
	}
	return nil
}

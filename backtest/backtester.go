// Package backtest drives the day-by-day simulation of a rebalancing
// strategy over a historical price table and assembles the equity curve.
package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantlab/rebal/market"
	"github.com/quantlab/rebal/portfolio"
)

// ErrNoData is returned by New when the price table carries nothing inside
// the requested window (lookback included). A backtest cannot start without
// data; everything after construction degrades gracefully instead.
var ErrNoData = errors.New("backtest: no price data in window")

// Strategy is the contract a signal generator implements. Signals receives
// all history up to and including the decision date and returns target
// weights per ticker; weights need not sum to one and an absent ticker means
// no target. PreRun sees the full table (lookback included) before the loop
// starts; PostRun receives the finished result for strategy-side reporting.
type Strategy interface {
	Name() string
	Signals(history *market.Table) map[string]float64
	PreRun(full *market.Table) error
	PostRun(Result)
}

// EquityPoint is one day's closing portfolio value.
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// EquityCurve is the day-indexed total portfolio value across a run,
// rescaled at finalization so the first point equals the initial cash.
type EquityCurve []EquityPoint

// Final returns the last value of the curve, or zero for an empty curve.
func (c EquityCurve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Value
}

// Result is what a finished run produces for downstream consumers.
type Result struct {
	EquityCurve EquityCurve
	Trades      []portfolio.TradeRecord
}

// Backtester runs one simulation. It exclusively owns its portfolio; a run
// is strictly sequential because each day's decisions depend on the prior
// day's state. Parameter sweeps parallelize by constructing independent
// Backtesters.
type Backtester struct {
	strategy  Strategy
	cfg       Config
	full      *market.Table // lookback + simulation window
	sim       *market.Table // simulation window only
	portfolio *portfolio.Portfolio
	rebalance map[time.Time]bool
	log       zerolog.Logger
}

// New prepares a run: slices the table to the configured window, derives the
// rebalance dates from the trading days actually present, and gives the
// strategy its pre-run look at the full history. It fails only when the
// window contains no data.
func New(strategy Strategy, table *market.Table, cfg Config, log zerolog.Logger) (*Backtester, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if len(cfg.Tickers) > 0 {
		table = table.Select(cfg.Tickers)
	}

	dataStart := cfg.Start.AddDate(0, 0, -cfg.LookbackDays)
	full := table.Range(dataStart, cfg.End)
	if full.IsEmpty() {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoData,
			dataStart.Format("2006-01-02"), cfg.End.Format("2006-01-02"))
	}

	sim := full.Range(cfg.Start, cfg.End)
	if sim.Len() == 0 {
		return nil, fmt.Errorf("%w: no trading days in %s to %s", ErrNoData,
			cfg.Start.Format("2006-01-02"), cfg.End.Format("2006-01-02"))
	}

	rebalance := make(map[time.Time]bool)
	for _, d := range market.MonthEnds(sim.Dates()) {
		rebalance[d] = true
	}

	if err := strategy.PreRun(full); err != nil {
		return nil, fmt.Errorf("backtest: strategy %s pre-run: %w", strategy.Name(), err)
	}

	return &Backtester{
		strategy:  strategy,
		cfg:       cfg,
		full:      full,
		sim:       sim,
		portfolio: portfolio.New(cfg.InitialCash, cfg.CostBps, log),
		rebalance: rebalance,
		log:       log,
	}, nil
}

// Portfolio exposes the run's portfolio, mainly for inspection in tests and
// post-run tooling. Callers must not mutate it during Run.
func (b *Backtester) Portfolio() *portfolio.Portfolio { return b.portfolio }

// Run executes the simulation and returns the equity curve and trade log.
// A started run always completes: day-level and trade-level anomalies are
// logged and absorbed, never escalated.
func (b *Backtester) Run() Result {
	b.log.Info().
		Str("strategy", b.strategy.Name()).
		Time("start", b.sim.Date(0)).
		Time("end", b.sim.LastDate()).
		Int("days", b.sim.Len()).
		Msg("backtest starting")

	curve := make(EquityCurve, 0, b.sim.Len())

	for i := 0; i < b.sim.Len(); i++ {
		date := b.sim.Date(i)
		prices := b.sim.SnapshotAt(i)

		// A day with no usable prices is a holiday or data gap: carry the
		// value forward and touch nothing.
		if len(prices) == 0 {
			prev := b.cfg.InitialCash
			if len(curve) > 0 {
				prev = curve[len(curve)-1].Value
			}
			b.log.Warn().Time("date", date).Msg("no prices for day, carrying value forward")
			curve = append(curve, EquityPoint{Date: date, Value: prev})
			continue
		}

		if b.rebalance[date] {
			weights := b.strategy.Signals(b.full.UpTo(date))
			if len(weights) > 0 {
				b.portfolio.Rebalance(weights, prices, date)
			} else {
				b.log.Debug().Time("date", date).Msg("no signals generated")
			}
		}

		b.portfolio.UpdateValue(prices)
		curve = append(curve, EquityPoint{Date: date, Value: b.portfolio.TotalValue})
	}

	curve.rescale(b.cfg.InitialCash)

	result := Result{EquityCurve: curve, Trades: b.portfolio.Trades}
	b.strategy.PostRun(result)

	b.log.Info().
		Float64("final_equity", curve.Final()).
		Int("trades", len(result.Trades)).
		Msg("backtest finished")

	return result
}

// rescale normalizes the curve so it starts at initialCash. A zero first
// value would fabricate growth through division, so that case flattens the
// whole curve at initialCash instead.
func (c EquityCurve) rescale(initialCash float64) {
	if len(c) == 0 {
		return
	}
	first := c[0].Value
	if first == 0 {
		for i := range c {
			c[i].Value = initialCash
		}
		return
	}
	factor := initialCash / first
	c[0].Value = initialCash // exact, not first*(initialCash/first)
	for i := 1; i < len(c); i++ {
		c[i].Value *= factor
	}
}

package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/rebal/market"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// stubStrategy returns fixed weights and records every Signals call.
type stubStrategy struct {
	weights     map[string]float64
	signalDates []time.Time
	signalLens  []int
	preRunLen   int
	preRunErr   error
	result      *Result
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Signals(history *market.Table) map[string]float64 {
	s.signalDates = append(s.signalDates, history.LastDate())
	s.signalLens = append(s.signalLens, history.Len())
	return s.weights
}

func (s *stubStrategy) PreRun(full *market.Table) error {
	s.preRunLen = full.Len()
	return s.preRunErr
}

func (s *stubStrategy) PostRun(r Result) { s.result = &r }

func twoMonthTable(t *testing.T) *market.Table {
	t.Helper()
	dates := []time.Time{
		d(2024, 1, 29), d(2024, 1, 30), d(2024, 1, 31),
		d(2024, 2, 1), d(2024, 2, 2), d(2024, 2, 29),
	}
	cols := map[string][]float64{
		"A": {100, 100, 100, 110, 110, 120},
		"B": {50, 50, 50, 50, 55, 60},
	}
	tbl, err := market.NewTable(dates, cols)
	require.NoError(t, err)
	return tbl
}

func newRun(t *testing.T, strat Strategy, tbl *market.Table, cfg Config) *Backtester {
	t.Helper()
	b, err := New(strat, tbl, cfg, zerolog.Nop())
	require.NoError(t, err)
	return b
}

func TestNewFailsWithoutData(t *testing.T) {
	tbl := twoMonthTable(t)
	_, err := New(&stubStrategy{}, tbl, Config{
		Start: d(2030, 1, 1),
		End:   d(2030, 12, 31),
	}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNewPropagatesPreRunError(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{preRunErr: assert.AnError}
	_, err := New(strat, tbl, Config{Start: d(2024, 1, 29), End: d(2024, 2, 29)}, zerolog.Nop())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRebalancesOnMonthEndsOnly(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{weights: map[string]float64{"A": 1.0}}
	b := newRun(t, strat, tbl, Config{
		Start:        d(2024, 1, 29),
		End:          d(2024, 2, 29),
		LookbackDays: 1, // no earlier data exists anyway
	})

	res := b.Run()

	// signals requested on the last trading day of each month only
	assert.Equal(t, []time.Time{d(2024, 1, 31), d(2024, 2, 29)}, strat.signalDates)
	assert.Len(t, res.EquityCurve, 6)
	assert.NotEmpty(t, res.Trades)
}

func TestSignalsSeeLookbackHistory(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{weights: map[string]float64{"A": 1.0}}
	b := newRun(t, strat, tbl, Config{
		Start:        d(2024, 2, 1),
		End:          d(2024, 2, 29),
		LookbackDays: 30,
	})

	assert.Equal(t, 6, strat.preRunLen) // full table incl. lookback

	b.Run()

	// the month-end signal call sees lookback days plus the sim days so far
	require.NotEmpty(t, strat.signalLens)
	assert.Equal(t, 6, strat.signalLens[len(strat.signalLens)-1])
}

func TestTickerFilterRestrictsUniverse(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{weights: map[string]float64{"A": 1.0}}
	b := newRun(t, strat, tbl, Config{
		Tickers: []string{"A"},
		Start:   d(2024, 1, 29),
		End:     d(2024, 2, 29),
	})

	assert.Equal(t, []string{"A"}, b.full.Tickers())

	// a filter matching nothing means there is no data to run on
	_, err := New(&stubStrategy{}, tbl, Config{
		Tickers: []string{"NOPE"},
		Start:   d(2024, 1, 29),
		End:     d(2024, 2, 29),
	}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEquityCurveStartsAtInitialCash(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{weights: map[string]float64{"A": 0.6, "B": 0.4}}
	b := newRun(t, strat, tbl, Config{Start: d(2024, 1, 29), End: d(2024, 2, 29)})

	res := b.Run()

	require.NotEmpty(t, res.EquityCurve)
	assert.Equal(t, DefaultInitialCash, res.EquityCurve[0].Value)
}

func TestEmptyDayCarriesValueForward(t *testing.T) {
	dates := []time.Time{d(2024, 1, 30), d(2024, 1, 31), d(2024, 2, 1)}
	cols := map[string][]float64{
		// Jan 31 is a month end with no usable prices at all
		"A": {100, math.NaN(), 105},
	}
	tbl, err := market.NewTable(dates, cols)
	require.NoError(t, err)

	strat := &stubStrategy{weights: map[string]float64{"A": 1.0}}
	b := newRun(t, strat, tbl, Config{Start: d(2024, 1, 30), End: d(2024, 2, 1)})

	res := b.Run()

	require.Len(t, res.EquityCurve, 3)
	// the gap day repeats the prior day's value
	assert.Equal(t, res.EquityCurve[0].Value, res.EquityCurve[1].Value)
	// the Jan month-end rebalance never fired: no signals, no trades that day
	assert.NotContains(t, strat.signalDates, d(2024, 1, 31))
	for _, tr := range res.Trades {
		assert.NotEqual(t, d(2024, 1, 31), tr.Date)
	}
}

func TestEmptyFirstDayUsesInitialCash(t *testing.T) {
	dates := []time.Time{d(2024, 3, 1), d(2024, 3, 4)}
	cols := map[string][]float64{
		"A": {math.NaN(), 100},
	}
	tbl, err := market.NewTable(dates, cols)
	require.NoError(t, err)

	b := newRun(t, &stubStrategy{}, tbl, Config{
		Start:       d(2024, 3, 1),
		End:         d(2024, 3, 4),
		InitialCash: 5000,
	})

	res := b.Run()
	require.Len(t, res.EquityCurve, 2)
	assert.Equal(t, 5000.0, res.EquityCurve[0].Value)
}

func TestEmptyWeightsLeavePortfolioUntouched(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{weights: nil}
	b := newRun(t, strat, tbl, Config{Start: d(2024, 1, 29), End: d(2024, 2, 29)})

	res := b.Run()

	assert.Empty(t, res.Trades)
	assert.Equal(t, DefaultInitialCash, res.EquityCurve.Final())
}

func TestPostRunReceivesResult(t *testing.T) {
	tbl := twoMonthTable(t)
	strat := &stubStrategy{weights: map[string]float64{"A": 1.0}}
	b := newRun(t, strat, tbl, Config{Start: d(2024, 1, 29), End: d(2024, 2, 29)})

	res := b.Run()

	require.NotNil(t, strat.result)
	assert.Equal(t, res.EquityCurve, strat.result.EquityCurve)
	assert.Equal(t, res.Trades, strat.result.Trades)
}

func TestRescaleZeroFirstValueFlattens(t *testing.T) {
	curve := EquityCurve{
		{Date: d(2024, 1, 2), Value: 0},
		{Date: d(2024, 1, 3), Value: 42},
	}
	curve.rescale(1000)
	assert.Equal(t, 1000.0, curve[0].Value)
	assert.Equal(t, 1000.0, curve[1].Value)
}

func TestRescaleMultiplies(t *testing.T) {
	curve := EquityCurve{
		{Date: d(2024, 1, 2), Value: 200},
		{Date: d(2024, 1, 3), Value: 300},
	}
	curve.rescale(100)
	assert.InDelta(t, 100, curve[0].Value, 1e-12)
	assert.InDelta(t, 150, curve[1].Value, 1e-12)
}

func TestConfigValidation(t *testing.T) {
	tbl := twoMonthTable(t)

	_, err := New(&stubStrategy{}, tbl, Config{}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(&stubStrategy{}, tbl, Config{
		Start: d(2024, 2, 1), End: d(2024, 1, 1),
	}, zerolog.Nop())
	assert.Error(t, err)
}

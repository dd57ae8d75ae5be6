package strategies

import (
	"fmt"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/market"
)

// EqualWeight allocates equal weight to the first N tickers that have a
// price on the decision day. Mainly a harness for exercising the engine.
type EqualWeight struct {
	N int
}

// NewEqualWeight returns an equal-weight strategy over the first n priced
// tickers; n <= 0 selects the default of 3.
func NewEqualWeight(n int) *EqualWeight {
	if n <= 0 {
		n = 3
	}
	return &EqualWeight{N: n}
}

func (s *EqualWeight) Name() string { return "equal-weight" }

func (s *EqualWeight) PreRun(full *market.Table) error { return nil }

func (s *EqualWeight) Signals(history *market.Table) map[string]float64 {
	if history.IsEmpty() {
		return nil
	}

	latest := history.SnapshotAt(history.Len() - 1)
	if len(latest) == 0 {
		return nil
	}

	chosen := make([]string, 0, s.N)
	for _, ticker := range history.Tickers() {
		if _, ok := latest[ticker]; !ok {
			continue
		}
		chosen = append(chosen, ticker)
		if len(chosen) == s.N {
			break
		}
	}

	weights := make(map[string]float64, len(chosen))
	per := 1.0 / float64(len(chosen))
	for _, ticker := range chosen {
		weights[ticker] = per
	}
	return weights
}

func (s *EqualWeight) PostRun(res backtest.Result) {
	fmt.Printf("equal-weight: final equity %.2f over %d trades\n",
		res.EquityCurve.Final(), len(res.Trades))
}

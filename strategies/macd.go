package strategies

import (
	"fmt"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/indicators"
	"github.com/quantlab/rebal/market"
)

// MACD defaults (the conventional 12/26/9).
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACD holds every ticker whose MACD line sits above its signal line and
// exits the rest. Positive weights are normalized to sum to one; tickers in
// the bearish state keep an explicit zero so existing positions are sold.
type MACD struct {
	Fast, Slow, Signal int
}

// NewMACD builds the strategy; non-positive periods select the defaults.
func NewMACD(fast, slow, signal int) *MACD {
	if fast <= 0 {
		fast = DefaultMACDFast
	}
	if slow <= 0 {
		slow = DefaultMACDSlow
	}
	if signal <= 0 {
		signal = DefaultMACDSignal
	}
	return &MACD{Fast: fast, Slow: slow, Signal: signal}
}

func (s *MACD) Name() string { return "macd" }

func (s *MACD) PreRun(full *market.Table) error { return nil }

func (s *MACD) Signals(history *market.Table) map[string]float64 {
	if history.IsEmpty() || history.Len() < s.Slow {
		return nil // not enough history to warm up
	}

	weights := make(map[string]float64, len(history.Tickers()))
	bullish := 0.0

	for _, ticker := range history.Tickers() {
		weights[ticker] = 0

		series := history.Series(ticker)
		if len(series) < s.Slow {
			continue // this ticker has too many gaps
		}

		macd, signal, err := indicators.MACD(series, s.Fast, s.Slow, s.Signal)
		if err != nil {
			continue
		}

		last := len(macd) - 1
		if macd[last] > signal[last] {
			weights[ticker] = 1.0
			bullish++
		}
	}

	if bullish > 0 {
		for ticker := range weights {
			weights[ticker] /= bullish
		}
	}
	return weights
}

func (s *MACD) PostRun(res backtest.Result) {
	fmt.Printf("macd(%d/%d/%d): final equity %.2f over %d trades\n",
		s.Fast, s.Slow, s.Signal, res.EquityCurve.Final(), len(res.Trades))
}

// Package metrics computes performance statistics over a finished equity
// curve. Daily data is assumed, annualized at 252 trading days.
package metrics

import (
	"math"

	"github.com/quantlab/rebal/backtest"
)

const tradingDaysPerYear = 252

// Summary is the headline performance of one run.
type Summary struct {
	TotalReturn      float64
	CAGR             float64
	AnnualVolatility float64
	SharpeRatio      float64
	MaxDrawdown      float64
}

// Summarize computes all metrics for the curve. Degenerate curves (fewer
// than two points) yield a zero summary rather than NaNs.
func Summarize(curve backtest.EquityCurve, riskFreeRate float64) Summary {
	if len(curve) < 2 {
		return Summary{}
	}

	returns := Returns(curve)

	return Summary{
		TotalReturn:      curve[len(curve)-1].Value/curve[0].Value - 1,
		CAGR:             CAGR(curve),
		AnnualVolatility: Volatility(returns),
		SharpeRatio:      SharpeRatio(returns, riskFreeRate),
		MaxDrawdown:      MaxDrawdown(curve),
	}
}

// Returns computes day-over-day percentage returns; one fewer entry than
// the curve.
func Returns(curve backtest.EquityCurve) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		out[i-1] = curve[i].Value/curve[i-1].Value - 1
	}
	return out
}

// SharpeRatio annualizes mean excess daily return over its standard
// deviation. Zero-variance return streams yield zero rather than dividing
// by zero.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	daily := riskFreeRate / tradingDaysPerYear
	mean := 0.0
	for _, r := range returns {
		mean += r - daily
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := (r - daily) - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}

	return math.Sqrt(tradingDaysPerYear) * mean / sd
}

// MaxDrawdown returns the deepest peak-to-trough loss as a negative
// fraction (e.g. -0.25 for a 25% drawdown).
func MaxDrawdown(curve backtest.EquityCurve) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			if dd := (p.Value - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// CAGR is the compound annual growth rate between the first and last points.
func CAGR(curve backtest.EquityCurve) float64 {
	if len(curve) < 2 {
		return 0
	}
	first, last := curve[0], curve[len(curve)-1]
	if first.Value <= 0 {
		return 0
	}

	years := last.Date.Sub(first.Date).Hours() / 24 / 365.25
	if years <= 0 {
		return 0
	}
	return math.Pow(last.Value/first.Value, 1/years) - 1
}

// Volatility annualizes the standard deviation of daily returns.
func Volatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

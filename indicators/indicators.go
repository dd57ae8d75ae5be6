// Package indicators provides the series math used by signal generation.
// Functions are deterministic over a plain close series, oldest first.
package indicators

import "fmt"

// EMA returns the exponential moving average of the series with smoothing
// 2/(period+1), seeded from the first observation. The result has one value
// per input value.
func EMA(series []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("empty series")
	}

	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(series))
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line
// (EMA of the MACD line) for the series.
func MACD(series []float64, fast, slow, signalPeriod int) (macd, signal []float64, err error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return nil, nil, fmt.Errorf("periods must be positive, got fast=%d slow=%d signal=%d", fast, slow, signalPeriod)
	}
	if fast >= slow {
		return nil, nil, fmt.Errorf("fast period %d must be shorter than slow period %d", fast, slow)
	}
	if len(series) < slow {
		return nil, nil, fmt.Errorf("not enough values: need %d, got %d", slow, len(series))
	}

	fastEMA, err := EMA(series, fast)
	if err != nil {
		return nil, nil, err
	}
	slowEMA, err := EMA(series, slow)
	if err != nil {
		return nil, nil, err
	}

	macd = make([]float64, len(series))
	for i := range series {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signal, err = EMA(macd, signalPeriod)
	if err != nil {
		return nil, nil, err
	}
	return macd, signal, nil
}

// Package strategies implements the signal generators a backtest can run.
package strategies

import (
	"fmt"
	"strings"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/config"
)

// ByName returns a strategy with default parameters. Strategies that need
// external inputs (sentiment) must be built through FromConfig.
func ByName(name string) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "equal-weight", "equalweight":
		return NewEqualWeight(0), nil

	case "macd":
		return NewMACD(0, 0, 0), nil

	case "sentiment", "news-sentiment":
		return nil, fmt.Errorf("sentiment strategy needs a sentiment file; configure it via FromConfig")

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: equal-weight, macd, sentiment)", name)
	}
}

// FromConfig builds a strategy from a config file section.
func FromConfig(cfg config.StrategyConfig) (backtest.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "equal-weight", "equalweight":
		return NewEqualWeight(cfg.TopN), nil

	case "macd":
		return NewMACD(cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod), nil

	case "sentiment", "news-sentiment":
		if cfg.SentimentFile == "" {
			return nil, fmt.Errorf("sentiment strategy requires strategy.sentiment_file")
		}
		return NewNewsSentiment(cfg.SentimentFile, cfg.DecayAlpha, cfg.TopN, cfg.LagDays), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: equal-weight, macd, sentiment)", cfg.Name)
	}
}

package backtest

import (
	"fmt"
	"time"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultInitialCash  = 100000.0
	DefaultCostBps      = 1.0
	DefaultLookbackDays = 30
)

// Config is the immutable construction surface of one run.
type Config struct {
	Tickers      []string
	Start        time.Time
	End          time.Time
	InitialCash  float64
	CostBps      float64 // transaction cost in basis points
	LookbackDays int     // extra history loaded before Start for warm-up
}

func (c Config) withDefaults() Config {
	if c.InitialCash == 0 {
		c.InitialCash = DefaultInitialCash
	}
	if c.CostBps == 0 {
		c.CostBps = DefaultCostBps
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	return c
}

func (c Config) validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("backtest: start and end dates are required")
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("backtest: end %s before start %s",
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	if c.InitialCash < 0 {
		return fmt.Errorf("backtest: initial cash must not be negative")
	}
	if c.CostBps < 0 {
		return fmt.Errorf("backtest: cost bps must not be negative")
	}
	if c.LookbackDays < 0 {
		return fmt.Errorf("backtest: lookback days must not be negative")
	}
	return nil
}

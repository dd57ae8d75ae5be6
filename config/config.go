// Package config loads and validates run configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// dateLayout is the format for start/end dates in config files.
const dateLayout = "2006-01-02"

// Config describes a complete backtest run.
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Report   ReportConfig   `json:"report" yaml:"report"`
}

// BacktestConfig contains the simulation window and account parameters.
type BacktestConfig struct {
	PricesFile   string   `json:"prices_file" yaml:"prices_file"`
	Tickers      []string `json:"tickers" yaml:"tickers"`
	Start        string   `json:"start" yaml:"start"` // YYYY-MM-DD
	End          string   `json:"end" yaml:"end"`
	InitialCash  float64  `json:"initial_cash" yaml:"initial_cash"`
	CostBps      float64  `json:"cost_bps" yaml:"cost_bps"`
	LookbackDays int      `json:"lookback_days" yaml:"lookback_days"`
}

// StrategyConfig selects and parameterizes the signal generator.
type StrategyConfig struct {
	Name string `json:"name" yaml:"name"` // equal-weight | macd | sentiment

	// equal-weight
	TopN int `json:"top_n,omitempty" yaml:"top_n,omitempty"`

	// macd
	FastPeriod   int `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod   int `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	SignalPeriod int `json:"signal_period,omitempty" yaml:"signal_period,omitempty"`

	// sentiment
	SentimentFile string  `json:"sentiment_file,omitempty" yaml:"sentiment_file,omitempty"`
	DecayAlpha    float64 `json:"decay_alpha,omitempty" yaml:"decay_alpha,omitempty"`
	LagDays       int     `json:"lag_days,omitempty" yaml:"lag_days,omitempty"`
}

// JournalConfig controls where run results are persisted.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ReportConfig controls optional chart output.
type ReportConfig struct {
	ChartFile string `json:"chart_file,omitempty" yaml:"chart_file,omitempty"`
}

// StartDate parses the configured start date.
func (c *BacktestConfig) StartDate() (time.Time, error) {
	return time.Parse(dateLayout, c.Start)
}

// EndDate parses the configured end date.
func (c *BacktestConfig) EndDate() (time.Time, error) {
	return time.Parse(dateLayout, c.End)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration as YAML (or JSON for .json paths).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Backtest.PricesFile == "" {
		return fmt.Errorf("backtest.prices_file is required")
	}
	if c.Backtest.Start == "" || c.Backtest.End == "" {
		return fmt.Errorf("backtest.start and backtest.end are required")
	}
	start, err := c.Backtest.StartDate()
	if err != nil {
		return fmt.Errorf("backtest.start: %w", err)
	}
	end, err := c.Backtest.EndDate()
	if err != nil {
		return fmt.Errorf("backtest.end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("backtest.end is before backtest.start")
	}
	if c.Backtest.InitialCash < 0 {
		return fmt.Errorf("backtest.initial_cash must not be negative")
	}
	if c.Backtest.CostBps < 0 {
		return fmt.Errorf("backtest.cost_bps must not be negative")
	}
	if c.Backtest.LookbackDays < 0 {
		return fmt.Errorf("backtest.lookback_days must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Name == "sentiment" && c.Strategy.SentimentFile == "" {
		return fmt.Errorf("strategy.sentiment_file required for sentiment strategy")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			PricesFile:   "./prices.csv",
			Tickers:      []string{"AAPL", "MSFT", "GOOG"},
			Start:        "2020-01-01",
			End:          "2023-12-31",
			InitialCash:  100000,
			CostBps:      1.0,
			LookbackDays: 30,
		},
		Strategy: StrategyConfig{
			Name: "equal-weight",
			TopN: 3,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}

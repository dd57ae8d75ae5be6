package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rebal",
	Short: "A portfolio rebalancing backtest engine",
	Long: `Rebal simulates periodic portfolio rebalancing over historical daily prices.

It provides tools for:
  - Backtesting target-weight strategies against daily close data
  - Equal-weight, MACD momentum and news-sentiment signal generators
  - Journaling trades and equity curves to CSV or SQLite
  - Performance summaries (CAGR, Sharpe, max drawdown)
  - Rendering equity curve charts`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the CLI logger. Human-readable console output on stderr,
// debug level only with --verbose.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

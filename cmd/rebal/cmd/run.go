package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlab/rebal/backtest"
	"github.com/quantlab/rebal/config"
	"github.com/quantlab/rebal/journal"
	"github.com/quantlab/rebal/market"
	"github.com/quantlab/rebal/metrics"
	"github.com/quantlab/rebal/pkg/id"
	"github.com/quantlab/rebal/report"
	"github.com/quantlab/rebal/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run loads daily close prices, builds the configured strategy and
simulates monthly rebalancing over the configured window.

Results are printed as a performance summary and, depending on the journal
configuration, persisted to CSV files or a SQLite database.

Example:
  rebal run -c backtest.yaml
  rebal run -c backtest.yaml --chart equity.png`,
	RunE: runRun,
}

var (
	runConfigPath string
	runChartPath  string
	runRiskFree   float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config file (required)")
	runCmd.Flags().StringVar(&runChartPath, "chart", "", "write equity curve PNG to this path (overrides config)")
	runCmd.Flags().Float64Var(&runRiskFree, "risk-free", 0, "annual risk-free rate for the Sharpe ratio")

	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger()

	table, err := market.LoadCSV(cfg.Backtest.PricesFile)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	log.Info().
		Str("file", cfg.Backtest.PricesFile).
		Int("days", table.Len()).
		Int("tickers", len(table.Tickers())).
		Msg("price table loaded")

	strat, err := strategies.FromConfig(cfg.Strategy)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	start, err := cfg.Backtest.StartDate()
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := cfg.Backtest.EndDate()
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}

	bt, err := backtest.New(strat, table, backtest.Config{
		Tickers:      cfg.Backtest.Tickers,
		Start:        start,
		End:          end,
		InitialCash:  cfg.Backtest.InitialCash,
		CostBps:      cfg.Backtest.CostBps,
		LookbackDays: cfg.Backtest.LookbackDays,
	}, log)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	res := bt.Run()

	initialCash := cfg.Backtest.InitialCash
	if initialCash == 0 {
		initialCash = backtest.DefaultInitialCash
	}

	sum := metrics.Summarize(res.EquityCurve, runRiskFree)
	fmt.Printf("\nBacktest Complete!\n")
	fmt.Printf("  Strategy:       %s\n", strat.Name())
	fmt.Printf("  Final Equity:   $%.2f\n", res.EquityCurve.Final())
	fmt.Printf("  Total Return:   %.2f%%\n", sum.TotalReturn*100)
	fmt.Printf("  CAGR:           %.2f%%\n", sum.CAGR*100)
	fmt.Printf("  Volatility:     %.2f%%\n", sum.AnnualVolatility*100)
	fmt.Printf("  Sharpe Ratio:   %.2f\n", sum.SharpeRatio)
	fmt.Printf("  Max Drawdown:   %.2f%%\n", sum.MaxDrawdown*100)
	fmt.Printf("  Trades:         %d\n", len(res.Trades))

	run := journal.Run{
		ID:          id.New(),
		Strategy:    strat.Name(),
		Start:       start,
		End:         end,
		InitialCash: initialCash,
		FinalEquity: res.EquityCurve.Final(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := writeJournal(cfg.Journal, run, res); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if cfg.Journal.Type != "" && cfg.Journal.Type != "none" {
		fmt.Printf("  Run ID:         %s\n", run.ID)
	}

	chartPath := cfg.Report.ChartFile
	if runChartPath != "" {
		chartPath = runChartPath
	}
	if chartPath != "" {
		title := fmt.Sprintf("%s equity curve", strat.Name())
		if err := report.WriteFile(chartPath, res.EquityCurve, title); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		fmt.Printf("  Chart:          %s\n", chartPath)
	}

	return nil
}

func writeJournal(cfg config.JournalConfig, run journal.Run, res backtest.Result) error {
	var (
		j   journal.Journal
		err error
	)

	switch cfg.Type {
	case "", "none":
		return nil
	case "csv":
		j, err = journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.DBPath)
	default:
		return fmt.Errorf("unknown journal type %q", cfg.Type)
	}
	if err != nil {
		return err
	}
	defer j.Close()

	return journal.WriteResult(j, run, res)
}

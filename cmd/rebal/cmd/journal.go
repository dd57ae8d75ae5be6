package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantlab/rebal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled backtest runs",
	Long: `Query and display run records from a SQLite journal database.

Subcommands:
  run    - Show metadata for a run
  trades - List the trades of a run in execution order
  equity - Print a run's equity curve

Examples:
  rebal journal run <run-id>
  rebal journal trades <run-id>
  rebal journal equity <run-id>`,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show metadata for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Print a run's equity curve",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./rebal.sqlite", "path to SQLite journal DB")
}

func openJournalDB() (*journal.SQLiteJournal, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	run, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Strategy:     %s\n", run.Strategy)
	fmt.Printf("  Window:       %s to %s\n",
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"))
	fmt.Printf("  Initial Cash: $%.2f\n", run.InitialCash)
	fmt.Printf("  Final Equity: $%.2f\n", run.FinalEquity)
	fmt.Printf("  Created:      %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTrades(args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("no trades recorded for this run")
		return nil
	}

	fmt.Printf("%-12s %-8s %-12s %14s %12s %14s %10s\n",
		"DATE", "TICKER", "KIND", "SHARES", "PRICE", "VALUE", "COST")
	for _, t := range trades {
		fmt.Printf("%-12s %-8s %-12s %14.4f %12.4f %14.2f %10.4f\n",
			t.Date.Format("2006-01-02"), t.Ticker, t.Kind,
			t.Shares, t.Price, t.Value, t.Cost)
	}
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	curve, err := j.ListEquity(args[0])
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	if len(curve) == 0 {
		fmt.Println("no equity points recorded for this run")
		return nil
	}

	for _, p := range curve {
		fmt.Printf("%s  %14.2f\n", p.Date.Format("2006-01-02"), p.Value)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query and display backtest runs from the journal database.

Subcommands:
  runs   - List recent runs
  run    - Show one run as an Org-mode report
  trades - List the trades of one run

Examples:
  stocksim journal runs
  stocksim journal run <run-id>
  stocksim journal trades <run-id>`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one run as an Org-mode report",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTradesCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "journal.db", "path to the SQLite journal database")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-8s  %s..%s  %-10s", r.RunID, r.Status, r.StartDate, r.EndDate, r.Strategy)
		if r.Status == journal.StatusSuccess {
			fmt.Printf("  return %.2f%%  trades %d", r.Summary.TotalReturn*100, r.Summary.TotalTrades)
		}
		fmt.Println()
	}
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	defer j.Close()

	report, err := j.ExportRunOrg(args[0])
	if err != nil {
		return fmt.Errorf("export run: %w", err)
	}

	fmt.Println(report)
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	defer j.Close()

	trades, err := j.ListTradesByRunID(args[0])
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	if len(trades) == 0 {
		fmt.Println("No trades recorded for this run.")
		return nil
	}
	for _, t := range trades {
		fmt.Printf("%s  %-4s  %-10s  qty %10.0f  @ %10.4f  fee %8.4f  cash %12.2f  %s\n",
			t.Date, t.Action, t.Code, t.Qty, t.Price, t.Fee, t.CashAfter, t.Reason)
	}
	return nil
}

// writeOrgReport renders a run report and writes it to path.
func writeOrgReport(j *journal.SQLite, runID, path string) error {
	report, err := j.ExportRunOrg(runID)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(report), 0644)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import market data from CSV files",
	Long: `Import loads CSV files into the local SQLite market database.

Subcommands:
  instruments - Load the instrument table (ts_code,name,market,list_date)
  daily       - Load daily bars (ts_code,trade_date,open,high,low,close,vol,amount,adj_factor)

Examples:
  stocksim import instruments --db market.db stock_basic.csv
  stocksim import daily --db market.db daily_2024.csv`,
}

var importInstrumentsCmd = &cobra.Command{
	Use:   "instruments <file.csv>",
	Short: "Import instrument rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportInstruments,
}

var importDailyCmd = &cobra.Command{
	Use:   "daily <file.csv>",
	Short: "Import daily bar rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportDaily,
}

var importDBPath string

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importInstrumentsCmd)
	importCmd.AddCommand(importDailyCmd)

	importCmd.PersistentFlags().StringVarP(&importDBPath, "db", "d", "stocksim.db", "path to the SQLite market database")
}

func runImportInstruments(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLite(importDBPath)
	if err != nil {
		return fmt.Errorf("open market db: %w", err)
	}
	defer st.Close()

	n, err := st.ImportInstrumentsCSV(args[0])
	if err != nil {
		return fmt.Errorf("import instruments: %w", err)
	}

	fmt.Printf("✓ Imported %d instruments from %s\n", n, args[0])
	return nil
}

func runImportDaily(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLite(importDBPath)
	if err != nil {
		return fmt.Errorf("open market db: %w", err)
	}
	defer st.Close()

	n, err := st.ImportDailyCSV(args[0])
	if err != nil {
		return fmt.Errorf("import daily: %w", err)
	}

	fmt.Printf("✓ Imported %d daily bars from %s\n", n, args[0])
	return nil
}

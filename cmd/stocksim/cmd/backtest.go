package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/backtest"
	"github.com/rustyeddy/stocksim/config"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/pkg/id"
	"github.com/rustyeddy/stocksim/store"
	"github.com/rustyeddy/stocksim/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest against the local market database",
	Long: `Backtest runs a strategy over historical daily bars.

Supported strategies:
  - noop: never trades (baseline test)
  - momentum: all-in rotation into the highest close
  - ma-cross: per-instrument SMA crossover
  - rank: rotating momentum portfolio over the full bar set

Example:
  stocksim backtest --db market.db --strategy ma-cross --start 2024-01-01 --end 2024-12-31`,
	RunE: runBacktest,
}

var (
	btConfigPath   string
	btDBPath       string
	btJournalPath  string
	btStrategy     string
	btStart        string
	btEnd          string
	btCash         float64
	btFee          float64
	btSlippage     float64
	btAdjust       string
	btWarmup       int
	btTopN         int
	btMinPrice     float64
	btMinVolume    float64
	btExclude      []string
	btMinListDays  int
	btFast         int
	btSlow         int
	btMaxPositions int
	btTopK         int
	btOrgPath      string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to a YAML or JSON config file")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "stocksim.db", "path to the SQLite market database")
	backtestCmd.Flags().StringVar(&btJournalPath, "journal", "journal.db", "path to the SQLite run journal (empty disables)")

	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "ma-cross", "strategy name (noop, momentum, ma-cross, rank)")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "end date YYYY-MM-DD")
	backtestCmd.Flags().Float64Var(&btCash, "cash", 1_000_000, "initial cash")
	backtestCmd.Flags().Float64Var(&btFee, "fee", 0.0005, "fee rate per side")
	backtestCmd.Flags().Float64Var(&btSlippage, "slippage", 0, "slippage rate per side")
	backtestCmd.Flags().StringVar(&btAdjust, "adjust", "forward", "price adjustment mode (forward, backward)")
	backtestCmd.Flags().IntVar(&btWarmup, "warmup", 20, "warmup trading days before the start date")

	backtestCmd.Flags().IntVar(&btTopN, "top-n", 100, "daily candidates kept by the selector")
	backtestCmd.Flags().Float64Var(&btMinPrice, "min-price", 2.0, "minimum close price")
	backtestCmd.Flags().Float64Var(&btMinVolume, "min-volume", 100_000, "minimum daily volume")
	backtestCmd.Flags().StringSliceVar(&btExclude, "exclude", []string{"ST"}, "name keywords excluded from the universe")
	backtestCmd.Flags().IntVar(&btMinListDays, "min-list-days", 60, "minimum calendar days since listing")

	backtestCmd.Flags().IntVar(&btFast, "fast", 5, "ma-cross/rank: fast period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 20, "ma-cross/rank: slow period")
	backtestCmd.Flags().IntVar(&btMaxPositions, "max-positions", 4, "rank: maximum concurrent positions")
	backtestCmd.Flags().IntVar(&btTopK, "top-k", 50, "rank: ranked candidate cap")

	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an Org-mode run report to this path")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open market db: %w", err)
	}
	defer st.Close()

	strat, err := strategies.ByName(cfg.Strategy.Name, strategies.Options{
		FastPeriod:   cfg.Strategy.FastPeriod,
		SlowPeriod:   cfg.Strategy.SlowPeriod,
		MaxPositions: cfg.Strategy.MaxPositions,
		TopK:         cfg.Strategy.TopK,
	})
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	var j *journal.SQLite
	runID := id.New()
	if cfg.Journal.DBPath != "" {
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal db: %w", err)
		}
		defer j.Close()

		params, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		if err := j.InsertRun(journal.RunRecord{
			RunID:     runID,
			Strategy:  strat.Name(),
			StartDate: cfg.Backtest.StartDate,
			EndDate:   cfg.Backtest.EndDate,
			Status:    journal.StatusRunning,
			CreatedAt: time.Now().UTC(),
			Params:    params,
		}); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
	}

	fmt.Printf("Running backtest with strategy: %s\n", strat.Name())
	fmt.Printf("  Run ID: %s\n", runID)
	fmt.Printf("  Market DB: %s\n", cfg.Store.DBPath)
	fmt.Printf("  Dates: %s .. %s\n\n", cfg.Backtest.StartDate, cfg.Backtest.EndDate)

	engine := backtest.New(st, strat, cfg.Backtest, cfg.Universe, cfg.Rules, cfg.Score)
	res, err := engine.Run()
	if err != nil {
		if j != nil {
			if ferr := j.FailRun(runID, err.Error()); ferr != nil {
				fmt.Printf("warning: record failure: %v\n", ferr)
			}
		}
		return fmt.Errorf("run: %w", err)
	}

	if j != nil {
		if err := j.CompleteRun(runID, &res); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		if err := j.InsertTrades(runID, res.TradeLog); err != nil {
			return fmt.Errorf("record trades: %w", err)
		}
	}

	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Total Return: %.2f%%\n", res.Summary.TotalReturn*100)
	fmt.Printf("  Max Drawdown: %.2f%%\n", res.Summary.MaxDrawdown*100)
	fmt.Printf("  Total Trades: %d\n", res.Summary.TotalTrades)
	fmt.Printf("  Final Equity: %.2f\n", res.Summary.FinalEquity)

	if btOrgPath != "" && j != nil {
		if err := writeOrgReport(j, runID, btOrgPath); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
		fmt.Printf("  Report: %s\n", btOrgPath)
	}
	return nil
}

// buildConfig merges the config file (or defaults) with explicit flags.
// A flag only overrides the file when it was set on the command line.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if btConfigPath != "" {
		loaded, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Store.DBPath = btDBPath
	}
	if flags.Changed("journal") {
		cfg.Journal.DBPath = btJournalPath
	}
	if flags.Changed("strategy") {
		cfg.Strategy.Name = btStrategy
	}
	if btStart != "" {
		cfg.Backtest.StartDate = btStart
	}
	if btEnd != "" {
		cfg.Backtest.EndDate = btEnd
	}
	if flags.Changed("cash") {
		cfg.Backtest.InitialCash = btCash
	}
	if flags.Changed("fee") {
		cfg.Backtest.FeeRate = btFee
	}
	if flags.Changed("slippage") {
		cfg.Backtest.SlippageRate = btSlippage
	}
	if flags.Changed("adjust") {
		cfg.Backtest.AdjustMode = btAdjust
	}
	if flags.Changed("warmup") {
		cfg.Backtest.WarmupDays = btWarmup
	}
	if flags.Changed("top-n") {
		cfg.Score.TopN = btTopN
	}
	if flags.Changed("min-price") {
		cfg.Rules.MinPrice = &btMinPrice
	}
	if flags.Changed("min-volume") {
		cfg.Rules.MinVolume = &btMinVolume
	}
	if flags.Changed("exclude") {
		cfg.Universe.ExcludeKeywords = btExclude
	}
	if flags.Changed("min-list-days") {
		cfg.Universe.MinListDays = btMinListDays
	}
	if flags.Changed("fast") {
		cfg.Strategy.FastPeriod = btFast
	}
	if flags.Changed("slow") {
		cfg.Strategy.SlowPeriod = btSlow
	}
	if flags.Changed("max-positions") {
		cfg.Strategy.MaxPositions = btMaxPositions
	}
	if flags.Changed("top-k") {
		cfg.Strategy.TopK = btTopK
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

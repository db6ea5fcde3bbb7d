// Package config loads, validates and generates run configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stocksim/backtest"
)

// Config represents the complete run configuration.
type Config struct {
	Backtest backtest.Params          `json:"backtest" yaml:"backtest"`
	Universe backtest.UniverseFilter  `json:"universe" yaml:"universe"`
	Rules    backtest.DailyRuleFilter `json:"rules" yaml:"rules"`
	Score    backtest.ScoreConfig     `json:"score" yaml:"score"`
	Strategy StrategyConfig           `json:"strategy" yaml:"strategy"`
	Store    StoreConfig              `json:"store" yaml:"store"`
	Journal  JournalConfig            `json:"journal" yaml:"journal"`
}

// StrategyConfig names the strategy and its tunables.
type StrategyConfig struct {
	Name         string `json:"name" yaml:"name"`
	FastPeriod   int    `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod   int    `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	MaxPositions int    `json:"max_positions,omitempty" yaml:"max_positions,omitempty"`
	TopK         int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// StoreConfig locates the market data database.
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// JournalConfig locates the run journal database. An empty path disables
// journaling.
type JournalConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
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

// SaveToFile saves configuration to a file, YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := time.Parse("2006-01-02", c.Backtest.StartDate); err != nil {
		return fmt.Errorf("backtest.start_date must be YYYY-MM-DD: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Backtest.EndDate); err != nil {
		return fmt.Errorf("backtest.end_date must be YYYY-MM-DD: %w", err)
	}
	if c.Backtest.EndDate < c.Backtest.StartDate {
		return fmt.Errorf("backtest.end_date is before backtest.start_date")
	}
	if c.Backtest.InitialCash <= 0 {
		return fmt.Errorf("backtest.initial_cash must be positive")
	}
	if c.Backtest.FeeRate < 0 || c.Backtest.FeeRate >= 1 {
		return fmt.Errorf("backtest.fee_rate must be in [0, 1)")
	}
	if c.Backtest.SlippageRate < 0 || c.Backtest.SlippageRate >= 1 {
		return fmt.Errorf("backtest.slippage_rate must be in [0, 1)")
	}
	if c.Backtest.WarmupDays < 0 {
		return fmt.Errorf("backtest.warmup_days must be non-negative")
	}
	if m := c.Backtest.AdjustMode; m != "" && m != "forward" && m != "backward" {
		return fmt.Errorf("backtest.adjust_mode must be forward or backward")
	}
	if c.Score.TopN < 1 {
		return fmt.Errorf("score.top_n must be at least 1")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	return nil
}

// Default creates a configuration with sensible defaults.
func Default() *Config {
	minPrice := 2.0
	minVolume := 100000.0
	return &Config{
		Backtest: backtest.Params{
			StartDate:    "2024-01-01",
			EndDate:      "2024-12-31",
			InitialCash:  1000000,
			FeeRate:      0.0005,
			SlippageRate: 0,
			AdjustMode:   "forward",
			WarmupDays:   20,
		},
		Universe: backtest.UniverseFilter{
			ExcludeKeywords: []string{"ST"},
			MinListDays:     60,
		},
		Rules: backtest.DailyRuleFilter{
			MinPrice:  &minPrice,
			MinVolume: &minVolume,
		},
		Score: backtest.ScoreConfig{
			TopN:           100,
			MomentumWeight: 1.0,
			VolumeWeight:   0.2,
			AmountWeight:   0.1,
		},
		Strategy: StrategyConfig{
			Name:       "ma-cross",
			FastPeriod: 5,
			SlowPeriod: 20,
		},
		Store:   StoreConfig{DBPath: "stocksim.db"},
		Journal: JournalConfig{DBPath: "journal.db"},
	}
}

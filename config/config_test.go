package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 0.0005, cfg.Backtest.FeeRate)
	assert.Equal(t, "forward", cfg.Backtest.AdjustMode)
	assert.Equal(t, []string{"ST"}, cfg.Universe.ExcludeKeywords)
	require.NotNil(t, cfg.Rules.MinPrice)
	assert.Equal(t, 2.0, *cfg.Rules.MinPrice)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	mutate := func(f func(*Config)) *Config {
		cfg := Default()
		f(cfg)
		return cfg
	}

	cases := []struct {
		name string
		cfg  *Config
	}{
		{"bad start date", mutate(func(c *Config) { c.Backtest.StartDate = "Jan 1" })},
		{"bad end date", mutate(func(c *Config) { c.Backtest.EndDate = "" })},
		{"end before start", mutate(func(c *Config) { c.Backtest.EndDate = "2000-01-01" })},
		{"zero cash", mutate(func(c *Config) { c.Backtest.InitialCash = 0 })},
		{"negative fee", mutate(func(c *Config) { c.Backtest.FeeRate = -0.1 })},
		{"fee of one", mutate(func(c *Config) { c.Backtest.FeeRate = 1 })},
		{"negative slippage", mutate(func(c *Config) { c.Backtest.SlippageRate = -0.1 })},
		{"negative warmup", mutate(func(c *Config) { c.Backtest.WarmupDays = -1 })},
		{"bad adjust mode", mutate(func(c *Config) { c.Backtest.AdjustMode = "sideways" })},
		{"zero top n", mutate(func(c *Config) { c.Score.TopN = 0 })},
		{"missing strategy", mutate(func(c *Config) { c.Strategy.Name = "" })},
		{"missing store path", mutate(func(c *Config) { c.Store.DBPath = "" })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}

	t.Run("empty adjust mode allowed", func(t *testing.T) {
		cfg := Default()
		cfg.Backtest.AdjustMode = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestSaveAndLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backtest.yaml")

	cfg := Default()
	cfg.Strategy.Name = "rank"
	cfg.Strategy.MaxPositions = 8
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveAndLoadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backtest.json")

	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"initial_cash"`)

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("garbage content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{{{not config"), 0644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("valid syntax invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("backtest:\n  start_date: 2024-01-02\n"), 0644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

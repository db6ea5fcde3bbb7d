package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/backtest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportInstrumentsCSV(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	path := writeFile(t, "instruments.csv",
		"ts_code,name,market,list_date\n"+
			"000001.SZ,平安银行,主板,1991-04-03\n"+
			"600000.SH,浦发银行,主板,1999-11-10\n")

	n, err := s.ImportInstrumentsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	codes, err := s.BuildUniverse("2024-01-01", backtest.UniverseFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"000001.SZ", "600000.SH"}, codes)
}

func TestImportInstrumentsCSVWithoutHeader(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	path := writeFile(t, "instruments.csv",
		"000001.SZ,平安银行,主板,1991-04-03\n")

	n, err := s.ImportInstrumentsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportDailyCSV(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	path := writeFile(t, "daily.csv",
		"ts_code,trade_date,open,high,low,close,vol,amount,adj_factor\n"+
			"000001.SZ,2024-01-02,10,11,9,10.5,1000,10500,1.0\n"+
			"000001.SZ,2024-01-03,10.5,12,10,11,1200,13200,\n")

	n, err := s.ImportDailyCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.DailyForCodes([]string{"000001.SZ"}, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 10.5, rows[0].Close)
	// Empty adj_factor parses as zero.
	assert.Equal(t, 0.0, rows[1].AdjFactor)
}

func TestImportDailyCSVBadRow(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	t.Run("non-numeric field", func(t *testing.T) {
		path := writeFile(t, "daily.csv",
			"000001.SZ,2024-01-02,abc,11,9,10.5,1000,10500,1.0\n")
		_, err := s.ImportDailyCSV(path)
		assert.Error(t, err)
	})

	t.Run("wrong column count", func(t *testing.T) {
		path := writeFile(t, "daily.csv",
			"000001.SZ,2024-01-02,10,11\n")
		_, err := s.ImportDailyCSV(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.ImportDailyCSV(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}

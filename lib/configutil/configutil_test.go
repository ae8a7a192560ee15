package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Inner struct {
		Flag bool `json:"flag"`
	} `json:"inner"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "config.json5"),
		[]byte(`{ name: "base", count: 3, inner: { flag: false } }`),
		0600,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "config.local.json5"),
		[]byte(`{ count: 9, inner: { flag: true } }`),
		0600,
	)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "base", cfg.Name)
	require.Equal(t, 9, cfg.Count)
	require.True(t, cfg.Inner.Flag)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDatabaseOpenInMemory(t *testing.T) {
	db, err := Database{}.Open("CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY);")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO t (id) VALUES (1)")
	require.NoError(t, err)
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", ""))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOLSTG_WAREHOUSE", "sqlite")
	t.Setenv("LOLSTG_SQLITE_PATH", filepath.Join(dir, "warehouse.db"))
	t.Setenv("LOLSTG_EXPORT_DIR", filepath.Join(dir, "exports"))
	t.Setenv("LOLSTG_LOG_LEVEL", "error")

	assert.Contains(t, execute(t, "migrate", "version"), "version: 0")
	assert.Contains(t, execute(t, "migrate", "up"), "migrations applied")
	assert.Contains(t, execute(t, "migrate", "version"), "version: 2")

	testdata := filepath.Join("..", "pkg", "staging", "sources", "testdata")
	assert.Contains(t, execute(t, "load", testdata), "loaded 5 raw matches")

	out := execute(t, "run", "--select", "stg_lol_teams", "--dry-run")
	assert.Contains(t, out, "built 10 rows")

	out = execute(t, "run", "--select", "stg_lol_teams", "--dry-run=false")
	assert.Contains(t, out, "wrote 10 rows")
	assert.Contains(t, out, "region NA")

	out = execute(t, "export", "--select", "stg_lol_teams")
	assert.Contains(t, out, filepath.Join(dir, "exports", "stg_lol_teams.csv"))
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sandbox points every path ccdisk touches into a temporary home.
func sandbox(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("CLAUDE_CONFIG_DIR", "")
	t.Setenv("CCDISK_LOGGING_PATH", filepath.Join(home, "state", "ccdisk.log"))
	t.Setenv("CCDISK_HISTORY_PATH", filepath.Join(home, "state", "history"))
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := run(t, append(args, "--json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func writeOld(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ccdisk dev")
}

func TestScanRecordsHistory(t *testing.T) {
	sandbox(t)

	var report map[string]any
	runJSON(t, &report, "scan")
	assert.Contains(t, report, "metrics")
	assert.Empty(t, report["findings"])

	var entries []map[string]any
	runJSON(t, &entries, "history", "list")
	assert.Len(t, entries, 1)

	_, err := run(t, "scan", "--no-history", "-o", "yaml")
	require.NoError(t, err)
	runJSON(t, &entries, "history")
	assert.Len(t, entries, 1)
}

func TestScanPrettyShowsUsage(t *testing.T) {
	home := sandbox(t)
	writeOld(t, filepath.Join(home, ".claude", "history.jsonl"), 2048, 0)

	out, err := run(t, "scan", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "Disk Usage (2.0 KiB)")
	assert.Contains(t, out, "Disk usage looks healthy")
}

func TestPruneSessionsPreviewConfirmRestore(t *testing.T) {
	home := sandbox(t)
	session := filepath.Join(home, ".claude", "projects", "-gone", "old.jsonl")
	writeOld(t, session, 4096, 100*24*time.Hour)

	var preview map[string]any
	runJSON(t, &preview, "prune-old-sessions")
	assert.Equal(t, "preview", preview["status"])
	assert.Equal(t, float64(30), preview["days_threshold"])
	assert.FileExists(t, session)

	var res map[string]any
	runJSON(t, &res, "prune-old-sessions", "--confirm", "--days", "60")
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, float64(1), res["removed"])
	assert.NoFileExists(t, session)

	var list map[string]any
	runJSON(t, &list, "list-backups")
	require.Len(t, list["backups"], 1)

	var restored map[string]any
	runJSON(t, &restored, "restore-backup", "latest")
	assert.Equal(t, "success", restored["status"])
	assert.FileExists(t, session)
}

func TestErrorResultExitsNonZero(t *testing.T) {
	sandbox(t)

	out, err := run(t, "restore-backup", "2001-01-01T00-00-00")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "[ERROR] restore-backup")
}

func TestSkipExitsZero(t *testing.T) {
	sandbox(t)

	out, err := run(t, "prune-debug-logs")
	require.NoError(t, err)
	assert.Contains(t, out, "[SKIPPED] prune-debug-logs")
}

func TestInvalidFlags(t *testing.T) {
	sandbox(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero days", []string{"prune-old-sessions", "--days", "0"}, "--days must be at least 1"},
		{"unknown format", []string{"scan", "-o", "xml"}, "unknown output format: xml"},
		{"no days flag", []string{"clear-plugin-cache", "--days", "3"}, "unknown flag: --days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSettingsActionCreatesFile(t *testing.T) {
	home := sandbox(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude"), 0o755))

	var res map[string]any
	runJSON(t, &res, "set-retention-period", "--confirm", "--days", "21")
	assert.Equal(t, "success", res["status"])

	data, err := os.ReadFile(filepath.Join(home, ".claude", "settings.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cleanupPeriodDays": 21}`, string(data))
}

func TestConfigCommands(t *testing.T) {
	home := sandbox(t)

	out, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ccdisk", "config.yaml")+"\n", out)

	out, err = run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created default config file")
	out, err = run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	t.Setenv("CCDISK_PRUNE_SESSION_DAYS", "45")
	out, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "session_days: 45")
	assert.Contains(t, out, "CCDISK_PRUNE_SESSION_DAYS=45")
}

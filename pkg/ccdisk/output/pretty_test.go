package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/backup"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/scan"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, fn func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf))
	return buf.String()
}

func TestPrettyFormatter_FormatReport(t *testing.T) {
	t.Parallel()

	f := &PrettyFormatter{}
	out := render(t, func(w *bytes.Buffer) error {
		return f.FormatReport(w, &Report{
			ScanReport: sampleReport(),
			Usage: &scan.Usage{
				Total:       100 * types.MiB,
				PluginCache: 60 * types.MiB,
				Plugins: []scan.PluginUsage{
					{Name: "alpha", Size: 30 * types.MiB, Versions: 3},
					{Name: "beta", Size: 20 * types.MiB, Versions: 1},
					{Name: "gamma", Size: 6 * types.MiB, Versions: 1},
					{Name: "delta", Size: 4 * types.MiB, Versions: 1},
				},
				Projects:         30 * types.MiB,
				ActiveProjects:   2,
				ActiveSize:       10 * types.MiB,
				OrphanedProjects: 5,
				OrphanedSize:     20 * types.MiB,
				Other:            10 * types.MiB,
			},
		})
	})

	assert.Contains(t, out, "/home/user/.claude")
	assert.Contains(t, out, "Linux 6.1.0 (WSL)")
	assert.Contains(t, out, "Disk Usage (100 MiB)")
	assert.Contains(t, out, "plugins/cache")
	assert.Contains(t, out, "(60%)")
	assert.Contains(t, out, "alpha (3 versions)")
	assert.Contains(t, out, "beta ")
	assert.NotContains(t, out, "delta")
	assert.Contains(t, out, "active (2 dirs)")
	assert.Contains(t, out, "orphaned (5 dirs)")
	assert.Contains(t, out, "Findings (1)")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "CLAUDE_JSON_BLOAT")
	assert.Contains(t, out, "$ ccdisk disable-primary-state")
	assert.Contains(t, out, "[caution]")
}

func TestPrettyFormatter_FormatReportHealthy(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Findings = nil
	r.Actions = nil

	out := render(t, func(w *bytes.Buffer) error {
		return (&PrettyFormatter{}).FormatReport(w, &Report{ScanReport: r})
	})
	assert.Contains(t, out, "Disk usage looks healthy")
	assert.NotContains(t, out, "Actions")
	assert.NotContains(t, out, "Disk Usage (")
}

func TestBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fraction float64
		filled   int
	}{
		{0, 0},
		{0.5, 18},
		{1, 36},
		{1.5, 36},
		{-1, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.fraction), func(t *testing.T) {
			t.Parallel()
			b := bar(tt.fraction)
			assert.Equal(t, tt.filled, countRune(b, '█'))
			assert.Equal(t, barWidth-tt.filled, countRune(b, '░'))
		})
	}
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}

func TestPrettyFormatter_FormatResultPreview(t *testing.T) {
	t.Parallel()

	files := make([]types.FilePreview, 12)
	for i := range files {
		files[i] = types.NewFilePreview(fmt.Sprintf("/p/s%02d.jsonl", i), 1024, 40+i)
	}
	res := &executor.Result{
		Action:         types.ActionPruneOldSessions,
		Status:         executor.StatusPreview,
		Files:          files,
		TotalSize:      12 * 1024,
		TotalSizeHuman: "12 KiB",
		Warning:        "Sessions cannot be resumed after deletion",
		BackupLocation: "/b/<timestamp>",
		DaysThreshold:  30,
	}

	out := render(t, func(w *bytes.Buffer) error { return (&PrettyFormatter{}).FormatResult(w, res) })
	assert.Contains(t, out, "PREVIEW: prune-old-sessions")
	assert.Contains(t, out, "Files that WOULD be affected (12 total)")
	assert.Contains(t, out, "/p/s09.jsonl")
	assert.NotContains(t, out, "/p/s10.jsonl")
	assert.Contains(t, out, "... and 2 more files")
	assert.Contains(t, out, "12 KiB")
	assert.Contains(t, out, "older than 30 days")
	assert.Contains(t, out, "WARNING: Sessions cannot be resumed")
	assert.Contains(t, out, "/b/<timestamp>")
	assert.Contains(t, out, "Run with --confirm to execute this action.")
}

func TestPrettyFormatter_FormatResultSettingsPreview(t *testing.T) {
	t.Parallel()

	res := &executor.Result{
		Action: types.ActionSetRetentionPeriod,
		Status: executor.StatusPreview,
		Path:   "/home/user/.claude/settings.json",
		Change: "Set cleanupPeriodDays to 14",
	}
	out := render(t, func(w *bytes.Buffer) error { return (&PrettyFormatter{}).FormatResult(w, res) })
	assert.Contains(t, out, "Would update: /home/user/.claude/settings.json")
	assert.Contains(t, out, "Set cleanupPeriodDays to 14")
	assert.NotContains(t, out, "Files that WOULD")
}

func TestPrettyFormatter_FormatResultStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  *executor.Result
		want []string
	}{
		{
			name: "success",
			res: &executor.Result{
				Action:         types.ActionClearMiscCaches,
				Status:         executor.StatusSuccess,
				Message:        "Cleared 2 cache directories",
				SizeFreed:      2048,
				SizeFreedHuman: "2.0 KiB",
				Backup:         "/b/2025-06-01T12-00-00",
				RestoreCmd:     "ccdisk restore-backup 2025-06-01T12-00-00",
			},
			want: []string{"[SUCCESS] clear-misc-caches", "Cleared 2 cache directories", "Freed: 2.0 KiB", "Backup: /b/2025-06-01T12-00-00", "Restore: ccdisk restore-backup"},
		},
		{
			name: "partial",
			res: &executor.Result{
				Action:  types.ActionRemoveOrphanedProjects,
				Status:  executor.StatusPartial,
				Message: "1 of 2 targets processed, 1 failed",
				Errors:  []string{"/p/x: permission denied"},
			},
			want: []string{"[PARTIAL] remove-orphaned-projects", "Errors:", "/p/x: permission denied"},
		},
		{
			name: "skip",
			res:  &executor.Result{Action: types.ActionPruneDebugLogs, Status: executor.StatusSkip, Reason: "No debug directory"},
			want: []string{"[SKIPPED] prune-debug-logs", "Reason: No debug directory"},
		},
		{
			name: "error",
			res:  &executor.Result{Action: "bogus", Status: executor.StatusError, Message: `unknown action "bogus"`},
			want: []string{"[ERROR] bogus", `Error: unknown action "bogus"`},
		},
		{
			name: "disabled",
			res: &executor.Result{
				Action:   types.ActionDisablePrimaryState,
				Status:   executor.StatusSuccess,
				Disabled: "/home/user/.claude.json.disabled.20250601120000",
			},
			want: []string{"Disabled: /home/user/.claude.json.disabled.20250601120000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := render(t, func(w *bytes.Buffer) error { return (&PrettyFormatter{}).FormatResult(w, tt.res) })
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestPrettyFormatter_FormatResultBackups(t *testing.T) {
	t.Parallel()

	res := &executor.Result{
		Action:  types.ActionListBackups,
		Status:  executor.StatusSuccess,
		Message: "2 backups in /b",
		Backups: []backup.Summary{
			{ID: "2025-06-02T00-00-00", Action: "prune-old-sessions", Files: 1, SizeHuman: "1.0 KiB", Latest: true},
			{ID: "2025-06-01T00-00-00", Action: "clear-plugin-cache", Files: 3, SizeHuman: "0 B"},
		},
	}
	out := render(t, func(w *bytes.Buffer) error { return (&PrettyFormatter{}).FormatResult(w, res) })
	assert.Contains(t, out, "2025-06-02T00-00-00 - prune-old-sessions (1.0 KiB, 1 files) (latest)")
	assert.Contains(t, out, "2025-06-01T00-00-00 - clear-plugin-cache (0 B, 3 files)")
}

func TestPrettyFormatter_FormatResultRestore(t *testing.T) {
	t.Parallel()

	res := &executor.Result{
		Action:  types.ActionRestoreBackup,
		Status:  executor.StatusSuccess,
		Message: "Restored 1 items from x",
		Restore: &backup.RestoreResult{ID: "x", Restored: []string{"/p/a"}, Skipped: []string{"/p/b"}},
		Backup:  "/b/x",
	}
	out := render(t, func(w *bytes.Buffer) error { return (&PrettyFormatter{}).FormatResult(w, res) })
	assert.Contains(t, out, "restored /p/a")
	assert.Contains(t, out, "skipped /p/b")
	assert.NotContains(t, out, "Backup: /b/x")
}

func TestPrettyFormatter_FormatHistory(t *testing.T) {
	t.Parallel()

	f := &PrettyFormatter{}
	out := render(t, func(w *bytes.Buffer) error {
		return f.FormatHistory(w, []history.Entry{
			{ID: "20250602T000000.000000000Z", CreatedAt: created, Findings: 2, TopRisk: "high", ClaudeJSON: 2048},
			{ID: "20250601T000000.000000000Z", CreatedAt: created},
		})
	})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "TOP RISK")
	assert.Contains(t, out, "20250602T000000.000000000Z")
	assert.Contains(t, out, "2.0 KiB")

	empty := render(t, func(w *bytes.Buffer) error { return f.FormatHistory(w, nil) })
	assert.Contains(t, empty, "No scans recorded yet")
}

func TestPrettyFormatter_FormatComparison(t *testing.T) {
	t.Parallel()

	f := &PrettyFormatter{}
	out := render(t, func(w *bytes.Buffer) error {
		return f.FormatComparison(w, &history.Comparison{
			From:     "one",
			To:       "two",
			Added:    []string{"CACHE_DIRS"},
			Resolved: []string{"CLAUDE_JSON_BLOAT"},
			Sizes: []history.SizeDelta{
				{Area: types.AreaClaudeJSON, From: 6 * types.MiB, To: 1 * types.MiB, Delta: -5 * types.MiB},
			},
			Unified: "--- one\n+++ two\n@@ -1 +1 @@\n-a\n+b\n",
		})
	})
	assert.Contains(t, out, "+ new CACHE_DIRS")
	assert.Contains(t, out, "- resolved CLAUDE_JSON_BLOAT")
	assert.Contains(t, out, "-5.0 MiB")
	assert.Contains(t, out, "+++ two")
	assert.Contains(t, out, "+b")

	none := render(t, func(w *bytes.Buffer) error {
		return f.FormatComparison(w, &history.Comparison{From: "a", To: "b"})
	})
	assert.Contains(t, none, "No changes between scans")
}

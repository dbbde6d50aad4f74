package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func layout(t *testing.T) *paths.Layout {
	t.Helper()
	home := t.TempDir()
	return paths.FromRoot(home, filepath.Join(home, ".claude"), filepath.Join(home, ".claude.json"), filepath.Join(home, ".claude-backups"))
}

func write(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func newScanner(l *paths.Layout) *Scanner {
	return New(l,
		WithClock(func() time.Time { return now }),
		WithEnv(types.EnvInfo{OS: "Linux", ConfigDir: l.ClaudeDir, HomeDir: l.Home}),
	)
}

func TestScanBloatedTree(t *testing.T) {
	t.Parallel()

	l := layout(t)
	write(t, l.ClaudeJSON, 6*int(types.MiB))
	write(t, filepath.Join(l.MiscCache("todos"), "t.json"), 2*int(types.MiB))

	report := newScanner(l).Scan()

	assert.Equal(t, now, report.CreatedAt)
	assert.Equal(t, l.ClaudeDir, report.Paths.ClaudeDir)
	assert.Equal(t, int64(6*types.MiB), report.Metrics.Size(types.AreaClaudeJSON))

	ids := make([]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"CLAUDE_JSON_BLOAT", "CACHE_DIRS"}, ids)

	require.NotEmpty(t, report.Actions)
	assert.Equal(t, types.ActionDisablePrimaryState, report.Actions[0].ID)
}

func TestScanEmptyTree(t *testing.T) {
	t.Parallel()

	report := newScanner(layout(t)).Scan()
	assert.Empty(t, report.Findings)
	assert.Empty(t, report.Actions)
}

func TestScanIsIdempotent(t *testing.T) {
	t.Parallel()

	l := layout(t)
	write(t, l.ClaudeJSON, 6*int(types.MiB))
	write(t, filepath.Join(l.ProjectsDir, "-nowhere-at-all", "s.jsonl"), 1024)

	s := newScanner(l)
	first := s.Scan()
	second := s.Scan()
	assert.Equal(t, first, second)
}

func TestScanDoesNotModify(t *testing.T) {
	t.Parallel()

	l := layout(t)
	write(t, l.ClaudeJSON, 6*int(types.MiB))
	before, err := os.Stat(l.ClaudeJSON)
	require.NoError(t, err)

	newScanner(l).Scan()

	after, err := os.Stat(l.ClaudeJSON)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.NoDirExists(t, l.BackupRoot)
}

func TestOSName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Linux", osName("linux"))
	assert.Equal(t, "Darwin", osName("darwin"))
	assert.Equal(t, "plan9", osName("plan9"))
}

func TestDetectEnvFillsPaths(t *testing.T) {
	t.Parallel()

	l := layout(t)
	env := DetectEnv(l)
	assert.Equal(t, l.ClaudeDir, env.ConfigDir)
	assert.Equal(t, l.Home, env.HomeDir)
	assert.NotEmpty(t, env.OS)
}

func TestUsage(t *testing.T) {
	t.Parallel()

	l := layout(t)
	write(t, filepath.Join(l.PluginCache, "market", "big", "1.0.0", "a"), 3000)
	write(t, filepath.Join(l.PluginCache, "market", "big", "2.0.0", "a"), 3000)
	write(t, filepath.Join(l.PluginCache, "market", "small", "1.0.0", "a"), 100)
	write(t, filepath.Join(l.ProjectsDir, paths.EncodeProjectDir(l.Home), "s.jsonl"), 500)
	write(t, filepath.Join(l.ProjectsDir, "-nowhere-at-all", "s.jsonl"), 700)
	write(t, filepath.Join(l.ClaudeDir, "history.jsonl"), 50)

	u := newScanner(l).Usage()

	assert.Equal(t, int64(7350), u.Total)
	assert.Equal(t, int64(6100), u.PluginCache)
	assert.Equal(t, []PluginUsage{
		{Name: "big", Size: 6000, Versions: 2},
		{Name: "small", Size: 100, Versions: 1},
	}, u.Plugins)
	assert.Equal(t, int64(1200), u.Projects)
	assert.Equal(t, 1, u.ActiveProjects)
	assert.Equal(t, int64(500), u.ActiveSize)
	assert.Equal(t, 1, u.OrphanedProjects)
	assert.Equal(t, int64(700), u.OrphanedSize)
	assert.Equal(t, int64(50), u.Other)
}

func TestUsageEmpty(t *testing.T) {
	t.Parallel()

	u := newScanner(layout(t)).Usage()
	assert.Zero(t, u.Total)
	assert.Empty(t, u.Plugins)
	assert.Zero(t, u.Other)
}

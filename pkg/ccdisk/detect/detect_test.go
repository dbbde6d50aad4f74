package detect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInput(t *testing.T) *Input {
	t.Helper()
	home := t.TempDir()
	return &Input{
		Snapshot: types.NewMetricsSnapshot(),
		Layout:   paths.FromRoot(home, filepath.Join(home, "claude"), filepath.Join(home, "claude.json"), filepath.Join(home, "bk")),
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func evidence(f *types.Finding, key string) (any, bool) {
	for _, e := range f.Evidence {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func TestClaudeJSONBloatThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int64
		want types.Risk
	}{
		{"empty", 0, ""},
		{"exactly 5 MiB", 5_242_880, ""},
		{"one byte over 5 MiB", 5_242_881, types.RiskMedium},
		{"exactly 20 MiB", 20 * types.MiB, types.RiskMedium},
		{"over 20 MiB", 20*types.MiB + 1, types.RiskHigh},
		{"exactly 100 MiB", 100 * types.MiB, types.RiskHigh},
		{"over 100 MiB", 100*types.MiB + 1, types.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := newInput(t)
			in.Snapshot.Sizes[types.AreaClaudeJSON] = tt.size

			f := ClaudeJSONBloat{}.Evaluate(in)
			if tt.want == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Risk)
			assert.Equal(t, []types.ActionID{types.ActionDisablePrimaryState}, f.RecommendedActions)
			v, ok := evidence(f, "size_bytes")
			require.True(t, ok)
			assert.Equal(t, tt.size, v)
		})
	}
}

func TestClaudeJSONBloatHistoryEntries(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	write(t, in.Layout.ClaudeJSON, `{"history":[1,2,3],"chats":[{}],"messages":"nope","other":[1]}`)
	in.Snapshot.Sizes[types.AreaClaudeJSON] = 6 * types.MiB

	f := ClaudeJSONBloat{}.Evaluate(in)
	require.NotNil(t, f)
	v, ok := evidence(f, "history_entries")
	require.True(t, ok)
	assert.Equal(t, int64(4), v)

	write(t, in.Layout.ClaudeJSON, `not json`)
	f = ClaudeJSONBloat{}.Evaluate(in)
	require.NotNil(t, f)
	_, ok = evidence(f, "history_entries")
	assert.False(t, ok)
}

func TestPluginCacheRegression(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	assert.Nil(t, PluginCacheRegression{}.Evaluate(in))

	in.Snapshot.Counts[types.CountPluginCacheFiles] = 1
	in.Snapshot.Sizes[types.AreaPluginCache] = 10
	f := PluginCacheRegression{}.Evaluate(in)
	require.NotNil(t, f)
	assert.Equal(t, types.RiskMedium, f.Risk)

	in.Snapshot.Sizes[types.AreaPluginCache] = 50*types.MiB + 1
	assert.Equal(t, types.RiskHigh, PluginCacheRegression{}.Evaluate(in).Risk)
}

func TestProjectsBloat(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	in.Snapshot.Sizes[types.AreaProjects] = 500*types.MiB - 1
	assert.Nil(t, ProjectsBloat{}.Evaluate(in))

	in.Snapshot.Sizes[types.AreaProjects] = 500 * types.MiB
	f := ProjectsBloat{}.Evaluate(in)
	require.NotNil(t, f)
	assert.Equal(t, types.RiskMedium, f.Risk)
	assert.Equal(t, []types.ActionID{types.ActionSetRetentionPeriod, types.ActionPruneOldSessions}, f.RecommendedActions)

	in.Snapshot.Sizes[types.AreaProjects] = types.GiB + 1
	assert.Equal(t, types.RiskHigh, ProjectsBloat{}.Evaluate(in).Risk)
}

func TestOversizedMemory(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	in.Snapshot.Sizes[types.AreaClaudeMD] = 100*types.KiB - 1
	assert.Nil(t, OversizedMemory{}.Evaluate(in))

	in.Snapshot.Sizes[types.AreaClaudeMD] = 100 * types.KiB
	f := OversizedMemory{}.Evaluate(in)
	require.NotNil(t, f)
	assert.Equal(t, types.RiskLow, f.Risk)
	assert.NotNil(t, f.References)
}

func TestCacheDirs(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	in.Snapshot.Sizes[types.AreaCachePrefix+"todos"] = 512 * types.KiB
	assert.Nil(t, CacheDirs{}.Evaluate(in), "below 1 MiB total")

	in.Snapshot.Sizes[types.AreaCachePrefix+"shell-snapshots"] = 512 * types.KiB
	f := CacheDirs{}.Evaluate(in)
	require.NotNil(t, f)
	assert.Equal(t, types.RiskInfo, f.Risk)
	dirs, _ := evidence(f, "dirs")
	assert.Equal(t, []string{"shell-snapshots", "todos"}, dirs)
}

func TestGroveTimeout(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	assert.Nil(t, GroveTimeout{}.Evaluate(in), "missing log")

	write(t, in.Layout.DebugLatest, "all good\n")
	assert.Nil(t, GroveTimeout{}.Evaluate(in))

	write(t, in.Layout.DebugLatest, "[WARN] slow operation detected: fetch\nTimeout waiting for GROVE\n")
	f := GroveTimeout{}.Evaluate(in)
	require.NotNil(t, f)
	assert.Equal(t, types.RiskHigh, f.Risk)
	patterns, _ := evidence(f, "patterns_matched")
	assert.Equal(t, []string{"timeout.*grove", "SLOW OPERATION DETECTED"}, patterns)
}

func TestGroveTimeoutReadsBoundedPrefix(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	write(t, in.Layout.DebugLatest, strings.Repeat("x", int(logScanLimit))+"Grove notice config")
	assert.Nil(t, GroveTimeout{}.Evaluate(in))
}

func TestWSLPowerShell(t *testing.T) {
	t.Parallel()

	line := "exec powershell.exe -c $env:USERPROFILE\n"

	in := newInput(t)
	write(t, in.Layout.DebugLatest, strings.Repeat(line, 5))
	assert.Nil(t, WSLPowerShell{}.Evaluate(in), "not WSL")

	in.Env.IsWSL = true
	f := WSLPowerShell{}.Evaluate(in)
	require.NotNil(t, f)
	count, _ := evidence(f, "call_count")
	assert.Equal(t, int64(5), count)

	write(t, in.Layout.DebugLatest, strings.Repeat(line, 2))
	assert.Nil(t, WSLPowerShell{}.Evaluate(in), "below minimum occurrences")
}

func TestOrphanedProjects(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	assert.Nil(t, OrphanedProjects{}.Evaluate(in), "missing projects dir")

	live := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in.Layout.ProjectsDir, paths.EncodeProjectDir(live)), 0o755))
	assert.Nil(t, OrphanedProjects{}.Evaluate(in), "decoded path exists")

	write(t, filepath.Join(in.Layout.ProjectsDir, "-gone-away", "s.jsonl"), "{}")
	f := OrphanedProjects{}.Evaluate(in)
	require.NotNil(t, f)
	assert.Equal(t, types.RiskMedium, f.Risk)
	count, _ := evidence(f, "count")
	assert.Equal(t, int64(1), count)
	dirs, _ := evidence(f, "dirs")
	assert.Equal(t, []string{"-gone-away"}, dirs)
}

func TestOldPluginVersions(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	base := filepath.Join(in.Layout.PluginCache, "market", "fmt")
	for _, v := range []string{"1.0.0", "1.2.0", "2.0.0"} {
		write(t, filepath.Join(base, v, "plugin.json"), "{}")
	}

	f := OldPluginVersions{}.Evaluate(in)
	require.NotNil(t, f)
	versions, _ := evidence(f, "versions")
	assert.ElementsMatch(t, []string{"fmt@1.0.0", "fmt@1.2.0"}, versions)
	assert.Equal(t, []types.ActionID{types.ActionPruneOldPluginVersions}, f.RecommendedActions)
}

type panicky struct{}

func (panicky) ID() string { return "PANICKY" }
func (panicky) Evaluate(*Input) *types.Finding { panic("boom") }

type fixed struct {
	id   string
	risk types.Risk
}

func (f fixed) ID() string { return f.id }
func (f fixed) Evaluate(*Input) *types.Finding {
	return &types.Finding{ID: f.id, Risk: f.risk}
}

func TestRunRanksAndRecovers(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	got := Run([]Detector{
		fixed{"A", types.RiskInfo},
		panicky{},
		fixed{"B", types.RiskCritical},
		fixed{"C", types.RiskMedium},
		fixed{"D", types.RiskHigh},
		fixed{"E", types.RiskLow},
		fixed{"F", types.RiskMedium},
	}, in)

	ids := make([]string, 0, len(got))
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"B", "D", "C", "F", "E", "A"}, ids)
}

func TestDefaultOnEmptyTree(t *testing.T) {
	t.Parallel()

	in := newInput(t)
	assert.Empty(t, Run(Default(), in))

	seen := map[string]bool{}
	for _, d := range Default() {
		assert.False(t, seen[d.ID()], "duplicate detector id %s", d.ID())
		seen[d.ID()] = true
	}
	assert.Len(t, seen, 9)
}

package targets

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Version
	}{
		{"1.2.3", Version{1, 2, 3}},
		{"v2.0.0", Version{2, 0, 0}},
		{"1.4", Version{1, 4, 0}},
		{"3", Version{3, 0, 0}},
		{"1.2.3-beta.1", Version{1, 2, 3}},
		{"1.x.0", Version{}},
		{"latest", Version{}},
		{"", Version{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseVersion(tt.in))
		})
	}
}

func TestSortVersionsDesc(t *testing.T) {
	t.Parallel()

	names := []string{"1.0.0", "2.0.0", "v1.10.0", "1.2.0", "nightly"}
	SortVersionsDesc(names)
	assert.Equal(t, []string{"2.0.0", "v1.10.0", "1.2.0", "1.0.0", "nightly"}, names)
}

type fixture struct {
	layout *paths.Layout
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	return &fixture{
		layout: paths.FromRoot(home, filepath.Join(home, "claude"), filepath.Join(home, "claude.json"), filepath.Join(home, "bk")),
		now:    time.Now(),
	}
}

func (fx *fixture) write(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	mod := fx.now.Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func (fx *fixture) finder(opts ...Option) *Finder {
	return New(fx.layout, append([]Option{WithClock(func() time.Time { return fx.now })}, opts...)...)
}

const day = 24 * time.Hour

func TestOldPluginVersions(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	base := filepath.Join(fx.layout.PluginCache, "official", "linter")
	fx.write(t, filepath.Join(base, "1.0.0", "index.js"), 10, 0)
	fx.write(t, filepath.Join(base, "1.2.0", "index.js"), 20, 0)
	fx.write(t, filepath.Join(base, "2.0.0", "index.js"), 30, 0)
	fx.write(t, filepath.Join(fx.layout.PluginCache, "official", "single", "0.1.0", "x"), 5, 0)

	got, err := fx.finder().OldPluginVersions()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(base, "1.2.0"), got[0].Path)
	assert.Equal(t, filepath.Join(base, "1.0.0"), got[1].Path)
	assert.Equal(t, int64(20), got[0].Size)
	assert.Equal(t, int64(10), got[1].Size)
}

func TestPluginCache(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write(t, filepath.Join(fx.layout.PluginCache, "m1", "small", "1.0.0", "f"), 5, 0)
	fx.write(t, filepath.Join(fx.layout.PluginCache, "m2", "big", "1.0.0", "f"), 50, 0)

	got, err := fx.finder().PluginCache()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, filepath.Join(fx.layout.PluginCache, "m2", "big"), got[0].Path)
	assert.Equal(t, types.FormatSize(50), got[0].SizeHuman)
}

func TestOldSessions(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	proj := filepath.Join(fx.layout.ProjectsDir, "-work")
	fx.write(t, filepath.Join(proj, "old.jsonl"), 10, 45*day)
	fx.write(t, filepath.Join(proj, "older.jsonl"), 10, 90*day)
	fx.write(t, filepath.Join(proj, "edge.jsonl"), 10, 30*day+time.Hour)
	fx.write(t, filepath.Join(proj, "new.jsonl"), 10, 2*day)
	fx.write(t, filepath.Join(proj, "notes.txt"), 10, 90*day)

	got, err := fx.finder().OldSessions(30)
	require.NoError(t, err)
	require.Len(t, got, 2, "age must strictly exceed the threshold")
	assert.Equal(t, filepath.Join(proj, "older.jsonl"), got[0].Path)
	assert.Equal(t, 90, got[0].AgeDays)
	assert.Equal(t, filepath.Join(proj, "old.jsonl"), got[1].Path)
}

func TestOldDebugLogs(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write(t, filepath.Join(fx.layout.DebugDir, "a.txt"), 3, 20*day)
	fx.write(t, filepath.Join(fx.layout.DebugDir, "b.txt"), 3, day)

	got, err := fx.finder().OldDebugLogs(14)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(fx.layout.DebugDir, "a.txt"), got[0].Path)

	empty, err := New(paths.FromRoot("/", filepath.Join(t.TempDir(), "none"), "/x", "/y")).OldDebugLogs(14)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrphanedProjects(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	live := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(fx.layout.ProjectsDir, paths.EncodeProjectDir(live)), 0o755))
	fx.write(t, filepath.Join(fx.layout.ProjectsDir, "-nonexistent-path-xyz", "s.jsonl"), 8, 0)

	got, err := fx.finder().OrphanedProjects()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(fx.layout.ProjectsDir, "-nonexistent-path-xyz"), got[0].Path)
	assert.Equal(t, int64(8), got[0].Size)
}

func TestMiscCaches(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write(t, filepath.Join(fx.layout.MiscCache("todos"), "a"), 4, 0)
	fx.write(t, filepath.Join(fx.layout.MiscCache("paste-cache"), "b"), 9, 0)
	require.NoError(t, os.MkdirAll(fx.layout.MiscCache("session-env"), 0o755))

	got, err := fx.finder().MiscCaches()
	require.NoError(t, err)
	require.Len(t, got, 2, "empty dirs are not listed")
	assert.Equal(t, fx.layout.MiscCache("paste-cache"), got[0].Path)
}

func TestStrictReportsPermissionErrors(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	t.Parallel()

	fx := newFixture(t)
	locked := filepath.Join(fx.layout.ProjectsDir, "-locked")
	fx.write(t, filepath.Join(locked, "s.jsonl"), 1, 60*day)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	lenient, err := fx.finder().OldSessions(30)
	require.NoError(t, err)
	assert.Empty(t, lenient)

	_, err = fx.finder(Strict()).OldSessions(30)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPermission)
}

// Package targets enumerates the files and directories each remediation
// action operates on. Detectors and the action generator use it in lenient
// mode, where unreadable entries are skipped; the executor uses strict mode,
// where the first access error is returned so the action can fail before
// mutating anything.
package targets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/metrics"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Finder lists action targets under a layout.
type Finder struct {
	layout *paths.Layout
	now    func() time.Time
	strict bool
}

// Option configures a Finder.
type Option func(*Finder)

// WithClock sets the time source used for age calculations.
func WithClock(now func() time.Time) Option {
	return func(f *Finder) { f.now = now }
}

// Strict makes listing errors fatal instead of skipped.
func Strict() Option {
	return func(f *Finder) { f.strict = true }
}

// New returns a lenient Finder using the wall clock.
func New(layout *paths.Layout, opts ...Option) *Finder {
	f := &Finder{layout: layout, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PluginGroup summarizes one cached plugin.
type PluginGroup struct {
	Marketplace string
	Name        string
	Path        string
	Versions    []string // newest first
	Size        int64
}

// ProjectDir is one child of the projects directory.
type ProjectDir struct {
	Path     string
	Name     string
	Decoded  string
	Orphaned bool
	Size     int64
}

// PrimaryState previews the primary state file, or returns nil when it is
// absent.
func (f *Finder) PrimaryState() ([]types.FilePreview, error) {
	info, err := os.Stat(f.layout.ClaudeJSON)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, f.fail("stat", f.layout.ClaudeJSON, err)
	}
	return []types.FilePreview{f.preview(f.layout.ClaudeJSON, info.Size(), info.ModTime())}, nil
}

// Plugins lists every plugins/cache/<marketplace>/<plugin> directory.
func (f *Finder) Plugins() ([]PluginGroup, error) {
	markets, err := f.subdirs(f.layout.PluginCache)
	if err != nil {
		return nil, err
	}

	var groups []PluginGroup
	for _, market := range markets {
		plugins, err := f.subdirs(filepath.Join(f.layout.PluginCache, market))
		if err != nil {
			return nil, err
		}
		for _, plugin := range plugins {
			dir := filepath.Join(f.layout.PluginCache, market, plugin)
			versions, err := f.subdirs(dir)
			if err != nil {
				return nil, err
			}
			SortVersionsDesc(versions)
			groups = append(groups, PluginGroup{
				Marketplace: market,
				Name:        plugin,
				Path:        dir,
				Versions:    versions,
				Size:        metrics.DirSize(dir),
			})
		}
	}
	return groups, nil
}

// PluginCache previews each cached plugin directory, largest first.
func (f *Finder) PluginCache() ([]types.FilePreview, error) {
	groups, err := f.Plugins()
	if err != nil {
		return nil, err
	}

	var out []types.FilePreview
	for _, g := range groups {
		out = append(out, f.previewPath(g.Path, g.Size))
	}
	sortBySize(out)
	return out, nil
}

// OldPluginVersions previews every version directory except the newest of
// each plugin, largest first.
func (f *Finder) OldPluginVersions() ([]types.FilePreview, error) {
	groups, err := f.Plugins()
	if err != nil {
		return nil, err
	}

	var out []types.FilePreview
	for _, g := range groups {
		if len(g.Versions) <= 1 {
			continue
		}
		for _, v := range g.Versions[1:] {
			out = append(out, f.measure(filepath.Join(g.Path, v)))
		}
	}
	sortBySize(out)
	return out, nil
}

// Projects lists the projects directory children with their decoded origin.
func (f *Finder) Projects() ([]ProjectDir, error) {
	names, err := f.subdirs(f.layout.ProjectsDir)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectDir, 0, len(names))
	for _, name := range names {
		decoded := paths.DecodeProjectDir(name)
		dir := filepath.Join(f.layout.ProjectsDir, name)
		out = append(out, ProjectDir{
			Path:     dir,
			Name:     name,
			Decoded:  decoded,
			Orphaned: !paths.IsDir(decoded),
			Size:     metrics.DirSize(dir),
		})
	}
	return out, nil
}

// OrphanedProjects previews project directories whose origin no longer
// exists, largest first.
func (f *Finder) OrphanedProjects() ([]types.FilePreview, error) {
	projects, err := f.Projects()
	if err != nil {
		return nil, err
	}

	var out []types.FilePreview
	for _, p := range projects {
		if p.Orphaned {
			out = append(out, f.previewPath(p.Path, p.Size))
		}
	}
	sortBySize(out)
	return out, nil
}

// OldSessions previews *.jsonl files under projects older than days,
// oldest first.
func (f *Finder) OldSessions(days int) ([]types.FilePreview, error) {
	return f.aged(f.layout.ProjectsDir, days, func(name string) bool {
		return strings.HasSuffix(name, ".jsonl")
	})
}

// OldDebugLogs previews files under debug older than days, oldest first.
func (f *Finder) OldDebugLogs(days int) ([]types.FilePreview, error) {
	return f.aged(f.layout.DebugDir, days, func(string) bool { return true })
}

// MiscCaches previews each non-empty misc cache directory, largest first.
func (f *Finder) MiscCaches() ([]types.FilePreview, error) {
	var out []types.FilePreview
	for _, name := range paths.MiscCacheDirs {
		dir := f.layout.MiscCache(name)
		info, err := os.Stat(dir)
		if err != nil {
			if !os.IsNotExist(err) && f.strict {
				return nil, f.fail("stat", dir, err)
			}
			continue
		}
		if !info.IsDir() {
			continue
		}
		if size := metrics.DirSize(dir); size > 0 {
			out = append(out, f.preview(dir, size, info.ModTime()))
		}
	}
	sortBySize(out)
	return out, nil
}

// aged walks root for regular files accepted by match whose age in whole
// days exceeds days.
func (f *Finder) aged(root string, days int, match func(string) bool) ([]types.FilePreview, error) {
	if !paths.IsDir(root) {
		return nil, nil
	}

	now := f.now()
	var out []types.FilePreview
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return f.skip("walk", path, err)
		}
		if !d.Type().IsRegular() || !match(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return f.skip("stat", path, err)
		}
		if age := types.AgeDays(info.ModTime(), now); age > days {
			out = append(out, types.NewFilePreview(path, info.Size(), age))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AgeDays != out[j].AgeDays {
			return out[i].AgeDays > out[j].AgeDays
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// subdirs returns the names of the directories directly under dir, sorted.
// A missing dir is empty.
func (f *Finder) subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, f.skip("read", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// skip returns nil in lenient mode and the classified error in strict mode.
func (f *Finder) skip(op, path string, err error) error {
	if f.strict {
		return f.fail(op, path, err)
	}
	logging.Get("targets").Debug("skipping unreadable entry", "op", op, "path", path, "error", err)
	return nil
}

func (f *Finder) fail(op, path string, err error) error {
	return types.Classify(op, path, err)
}

func (f *Finder) previewPath(path string, size int64) types.FilePreview {
	var mod time.Time
	if info, err := os.Lstat(path); err == nil {
		mod = info.ModTime()
	} else {
		mod = f.now()
	}
	return f.preview(path, size, mod)
}

// measure previews path with its size on disk.
func (f *Finder) measure(path string) types.FilePreview {
	return f.previewPath(path, metrics.FileSize(path))
}

func (f *Finder) preview(path string, size int64, mod time.Time) types.FilePreview {
	return types.NewFilePreview(path, size, types.AgeDays(mod, f.now()))
}

func sortBySize(p []types.FilePreview) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].Size != p[j].Size {
			return p[i].Size > p[j].Size
		}
		return p[i].Path < p[j].Path
	})
}

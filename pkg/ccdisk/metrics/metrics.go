// Package metrics walks the state directory once and aggregates byte sizes
// and file counts per area.
package metrics

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// walkConfig keeps the walk sequential and never follows symlinks.
var walkConfig = fastwalk.Config{
	Follow:     false,
	NumWorkers: 1,
}

// Collect builds a snapshot of the layout. It never fails: unreadable
// entries are counted under walk_errors and skipped, and a missing state
// directory yields zero sizes.
func Collect(layout *paths.Layout) *types.MetricsSnapshot {
	snap := types.NewMetricsSnapshot()
	for _, area := range []string{
		types.AreaClaudeJSON, types.AreaClaudeDir, types.AreaPluginCache,
		types.AreaProjects, types.AreaDebug, types.AreaClaudeMD, types.AreaSettingsJSON,
	} {
		snap.Sizes[area] = 0
	}
	for _, name := range paths.MiscCacheDirs {
		snap.Sizes[types.AreaCachePrefix+name] = 0
	}
	for _, c := range []string{
		types.CountPluginCacheFiles, types.CountProjectFiles, types.CountDebugFiles,
		types.CountClaudeDirFiles, types.CountSymlinks, types.CountWalkErrors,
	} {
		snap.Counts[c] = 0
	}

	if info, err := os.Stat(layout.ClaudeJSON); err == nil && info.Mode().IsRegular() {
		snap.Sizes[types.AreaClaudeJSON] = info.Size()
	}

	if !paths.IsDir(layout.ClaudeDir) {
		return snap
	}

	c := &collector{root: layout.ClaudeDir, snap: snap}
	err := fastwalk.Walk(&walkConfig, layout.ClaudeDir, c.visit)
	if err != nil {
		snap.Counts[types.CountWalkErrors]++
		logging.Get("metrics").Warn("walk aborted", "root", layout.ClaudeDir, "error", err)
	}

	return snap
}

type collector struct {
	root string
	snap *types.MetricsSnapshot
}

func (c *collector) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		c.snap.Counts[types.CountWalkErrors]++
		logging.Get("metrics").Debug("skipping entry", "path", path, "error", err)
		return nil
	}

	if d.Type()&fs.ModeSymlink != 0 {
		c.snap.Counts[types.CountSymlinks]++
		return nil
	}
	if !d.Type().IsRegular() {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		c.snap.Counts[types.CountWalkErrors]++
		return nil
	}

	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		c.snap.Counts[types.CountWalkErrors]++
		return nil
	}
	c.add(filepath.ToSlash(rel), info.Size())
	return nil
}

func (c *collector) add(rel string, size int64) {
	s := c.snap
	s.Sizes[types.AreaClaudeDir] += size
	s.Counts[types.CountClaudeDirFiles]++

	switch rel {
	case "CLAUDE.md":
		s.Sizes[types.AreaClaudeMD] = size
	case "settings.json":
		s.Sizes[types.AreaSettingsJSON] = size
	}

	top, _, _ := strings.Cut(rel, "/")
	switch {
	case strings.HasPrefix(rel, "plugins/cache/"):
		s.Sizes[types.AreaPluginCache] += size
		s.Counts[types.CountPluginCacheFiles]++
	case top == "projects" && rel != "projects":
		s.Sizes[types.AreaProjects] += size
		s.Counts[types.CountProjectFiles]++
	case top == "debug" && rel != "debug":
		s.Sizes[types.AreaDebug] += size
		s.Counts[types.CountDebugFiles]++
	}

	for _, name := range paths.MiscCacheDirs {
		if top == name && rel != name {
			s.Sizes[types.AreaCachePrefix+name] += size
			break
		}
	}
}

// DirSize sums regular-file sizes under root without following symlinks.
// Unreadable entries are skipped; a missing root is zero.
func DirSize(root string) int64 {
	var total int64
	_ = fastwalk.Walk(&walkConfig, root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// FileSize returns the size of a regular file, or the recursive size when
// path is a directory. Missing paths are zero.
func FileSize(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if info.IsDir() {
		return DirSize(path)
	}
	if info.Mode().IsRegular() {
		return info.Size()
	}
	return 0
}

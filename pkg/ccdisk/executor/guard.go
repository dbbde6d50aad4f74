package executor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// within resolves symlinks in root and target and requires the target to
// be a strict descendant of the root.
func within(root, target string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return types.Classify("resolve", root, err)
	}
	realTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		return types.Classify("resolve", target, err)
	}

	rel, err := filepath.Rel(realRoot, realTarget)
	if err != nil || rel == "." || rel == ".." || filepath.IsAbs(rel) ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &types.PathError{Op: "delete", Path: target, Kind: types.ErrTraversalRejected}
	}
	return nil
}

// removeUnder deletes target, a file or directory tree, after checking it
// lies under root. A symlink target is removed as a link.
func removeUnder(root, target string) error {
	if err := within(root, target); err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return types.Classify("delete", target, err)
	}
	return nil
}

var accessWalk = fastwalk.Config{Follow: false, NumWorkers: 1}

// checkAccess verifies every target can be read, descending into
// directories, and returns the first failure. Targets that no longer exist
// are left for the mutation step to count as skipped.
func checkAccess(targets []types.FilePreview) error {
	for _, t := range targets {
		info, err := os.Stat(t.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return types.Classify("stat", t.Path, err)
		}
		if !info.IsDir() {
			f, err := os.Open(t.Path)
			if err != nil {
				return types.Classify("open", t.Path, err)
			}
			_ = f.Close()
			continue
		}

		err = fastwalk.Walk(&accessWalk, t.Path, func(path string, _ fs.DirEntry, err error) error {
			if err != nil {
				return types.Classify("read", path, err)
			}
			return nil
		})
		if err != nil {
			return types.Classify("walk", t.Path, err)
		}
	}
	return nil
}

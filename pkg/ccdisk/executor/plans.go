package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/actions"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/backup"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/targets"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// disabledSuffixLayout stamps the renamed primary state file.
const disabledSuffixLayout = "20060102150405"

func (e *Executor) plan(def actions.Definition, days int) (*plan, error) {
	l := e.layout

	switch def.ID {
	case types.ActionDisablePrimaryState:
		var disabled string
		return &plan{
			def:     def,
			root:    l.ClaudeJSON,
			missing: fmt.Sprintf("File not found: %s", l.ClaudeJSON),
			find:    (*targets.Finder).PrimaryState,
			empty:   fmt.Sprintf("File not found: %s", l.ClaudeJSON),
			describe: func(int, int64) string {
				return "Backup of primary state before disable"
			},
			save: func(tx *backup.Transaction, _ []types.FilePreview) error {
				_, err := e.backups.BackupFile(tx, l.ClaudeJSON, "claude.json")
				return err
			},
			mutate: func(t types.FilePreview) error {
				dest := e.disabledPath(t.Path)
				if err := os.Rename(t.Path, dest); err != nil {
					return types.Classify("rename", t.Path, err)
				}
				disabled = dest
				return nil
			},
			finish: func(r *Result) { r.Disabled = disabled },
			done: func(_ int, size int64) string {
				return fmt.Sprintf("Primary state backed up and disabled (%s). Re-authenticate on next start.", types.FormatSize(size))
			},
		}, nil

	case types.ActionClearPluginCache:
		return &plan{
			def:     def,
			root:    l.PluginCache,
			missing: "Plugin cache not found",
			find:    (*targets.Finder).PluginCache,
			empty:   "Plugin cache is empty",
			describe: func(_ int, size int64) string {
				return fmt.Sprintf("Cleared %s plugin cache", types.FormatSize(size))
			},
			mutate: e.remover(l.PluginCache),
			done: func(n int, size int64) string {
				return fmt.Sprintf("Cleared %s from plugin cache (%d plugins)", types.FormatSize(size), n)
			},
		}, nil

	case types.ActionPruneOldPluginVersions:
		return &plan{
			def:     def,
			root:    l.PluginCache,
			missing: "Plugin cache not found",
			find:    (*targets.Finder).OldPluginVersions,
			empty:   "No old plugin versions found",
			describe: func(n int, size int64) string {
				return fmt.Sprintf("%d old plugin versions (%s)", n, types.FormatSize(size))
			},
			mutate: e.remover(l.PluginCache),
			done: func(n int, size int64) string {
				return fmt.Sprintf("Deleted %d old plugin versions (%s)", n, types.FormatSize(size))
			},
		}, nil

	case types.ActionPruneOldSessions:
		return &plan{
			def:     def,
			days:    days,
			root:    l.ProjectsDir,
			missing: "Projects directory not found",
			find: func(f *targets.Finder) ([]types.FilePreview, error) {
				return f.OldSessions(days)
			},
			empty: fmt.Sprintf("No session files older than %d days", days),
			describe: func(n int, _ int64) string {
				return fmt.Sprintf("Sessions older than %d days (%d files)", days, n)
			},
			save: func(tx *backup.Transaction, _ []types.FilePreview) error {
				_, err := e.backups.BackupDirectoryAsArchive(tx, l.ProjectsDir, "projects.tgz")
				return err
			},
			mutate: e.remover(l.ProjectsDir),
			done: func(n int, size int64) string {
				return fmt.Sprintf("Deleted %d session files (%s)", n, types.FormatSize(size))
			},
		}, nil

	case types.ActionPruneDebugLogs:
		return &plan{
			def:     def,
			days:    days,
			root:    l.DebugDir,
			missing: "Debug directory not found",
			find: func(f *targets.Finder) ([]types.FilePreview, error) {
				return f.OldDebugLogs(days)
			},
			empty: fmt.Sprintf("No debug files older than %d days", days),
			describe: func(n int, _ int64) string {
				return fmt.Sprintf("Debug logs older than %d days (%d files)", days, n)
			},
			mutate: e.remover(l.DebugDir),
			done: func(n int, size int64) string {
				return fmt.Sprintf("Deleted %d debug files (%s)", n, types.FormatSize(size))
			},
		}, nil

	case types.ActionClearMiscCaches:
		return &plan{
			def:     def,
			root:    l.ClaudeDir,
			missing: "State directory not found",
			find:    (*targets.Finder).MiscCaches,
			empty:   "No cache directories with content found",
			describe: func(n int, _ int64) string {
				return fmt.Sprintf("Cleared %d cache dirs", n)
			},
			mutate: e.recreate(l.ClaudeDir),
			done: func(n int, size int64) string {
				return fmt.Sprintf("Cleared %d cache directories (%s)", n, types.FormatSize(size))
			},
		}, nil

	case types.ActionRemoveOrphanedProjects:
		return &plan{
			def:     def,
			root:    l.ProjectsDir,
			missing: "Projects directory not found",
			find:    (*targets.Finder).OrphanedProjects,
			empty:   "No orphaned projects found",
			describe: func(n int, size int64) string {
				return fmt.Sprintf("%d orphaned project dirs (%s)", n, types.FormatSize(size))
			},
			save: func(tx *backup.Transaction, found []types.FilePreview) error {
				for _, t := range found {
					name := "orphaned-" + filepath.Base(t.Path) + ".tgz"
					if _, err := e.backups.BackupDirectoryAsArchive(tx, t.Path, name); err != nil {
						return err
					}
				}
				return nil
			},
			mutate: e.remover(l.ProjectsDir),
			done: func(n int, size int64) string {
				return fmt.Sprintf("Deleted %d orphaned project directories (%s)", n, types.FormatSize(size))
			},
		}, nil
	}

	return nil, fmt.Errorf("action %q has no executor", def.ID)
}

func (e *Executor) remover(root string) func(types.FilePreview) error {
	return func(t types.FilePreview) error {
		return removeUnder(root, t.Path)
	}
}

// recreate empties a directory by removing it and creating it again with
// the same permissions.
func (e *Executor) recreate(root string) func(types.FilePreview) error {
	return func(t types.FilePreview) error {
		perm := os.FileMode(0o755)
		if info, err := os.Stat(t.Path); err == nil {
			perm = info.Mode().Perm()
		}
		if err := removeUnder(root, t.Path); err != nil {
			return err
		}
		if err := os.MkdirAll(t.Path, perm); err != nil {
			return types.Classify("mkdir", t.Path, err)
		}
		return nil
	}
}

func (e *Executor) disabledPath(path string) string {
	name := fmt.Sprintf("%s.disabled.%s", filepath.Base(path), e.now().Format(disabledSuffixLayout))
	return filepath.Join(filepath.Dir(path), name)
}

func (e *Executor) disableNonessentialTraffic(def actions.Definition, opts Options) *Result {
	change := fmt.Sprintf("Set %s=1", nonessentialTrafficVar)
	return e.editSettings(def, opts, change, func(doc map[string]any) error {
		return setEnv(doc, nonessentialTrafficVar, "1")
	})
}

func (e *Executor) setRetentionPeriod(def actions.Definition, days int, opts Options) *Result {
	change := fmt.Sprintf("Set %s=%d", cleanupPeriodDaysKey, days)
	res := e.editSettings(def, opts, change, func(doc map[string]any) error {
		doc[cleanupPeriodDaysKey] = days
		return nil
	})
	if res.Status == StatusPreview || res.Status == StatusSuccess {
		res.DaysThreshold = days
	}
	if res.Status == StatusSuccess {
		res.Message += ". Old sessions are deleted at startup."
	}
	return res
}

// editSettings applies edit to settings.json. It is never skipped: a
// missing file is created.
func (e *Executor) editSettings(def actions.Definition, opts Options, change string, edit func(map[string]any) error) *Result {
	id := def.ID
	path := e.layout.SettingsJSON

	doc, exists, err := readSettings(path)
	if err != nil {
		return failure(id, err)
	}
	if err := edit(doc); err != nil {
		return failure(id, err)
	}

	if !opts.Confirm {
		return &Result{
			Action:         id,
			Status:         StatusPreview,
			Path:           path,
			Change:         change,
			Warning:        def.Warning,
			BackupLocation: filepath.Join(e.backups.Root(), "<timestamp>"),
		}
	}

	tx, err := e.backups.CreateTransaction(string(id), change)
	if err != nil {
		return failure(id, err)
	}
	res := &Result{Action: id, Path: path, Change: change, BackupID: tx.ID(), Backup: tx.Dir()}

	if exists {
		if _, err := e.backups.BackupFile(tx, path, settingsBackupName); err != nil {
			res.Status = StatusError
			res.Message = fmt.Sprintf("backup failed, nothing was changed: %v", err)
			res.Errors = []string{err.Error()}
			return res
		}
		res.RestoreCmd = restoreCommand(tx.ID())
	}

	if err := writeSettings(path, doc); err != nil {
		res.Status = StatusError
		res.Message = err.Error()
		res.Errors = []string{err.Error()}
		return res
	}

	e.logger.Info("settings updated", "action", id, "path", path, "change", change)
	res.Status = StatusSuccess
	res.Message = change
	return res
}

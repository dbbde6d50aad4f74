// Package executor runs remediation actions in two phases. Without
// confirmation an action only reports what it would touch. With
// confirmation it checks access to every target, opens a backup
// transaction, saves or records each target and then mutates the
// filesystem, collecting per-target failures instead of stopping.
package executor

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/actions"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/backup"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/targets"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Defaults are the --days values used when Options.Days is zero.
type Defaults struct {
	SessionDays   int
	DebugDays     int
	RetentionDays int
}

// DefaultDays matches the configuration defaults.
var DefaultDays = Defaults{SessionDays: 30, DebugDays: 14, RetentionDays: 14}

// Options controls a single Run.
type Options struct {
	// Confirm executes the action; otherwise only a preview is returned.
	Confirm bool

	// Days overrides the default threshold of aged actions.
	Days int

	// BackupID selects the transaction for restore-backup.
	BackupID string
}

// Executor runs actions against one layout.
type Executor struct {
	layout   *paths.Layout
	backups  *backup.Manager
	now      func() time.Time
	defaults Defaults
	logger   *logging.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the time source for ages and disabled-file suffixes.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithDefaults sets the default day thresholds.
func WithDefaults(d Defaults) Option {
	return func(e *Executor) { e.defaults = d }
}

// New returns an Executor writing backups through backups.
func New(layout *paths.Layout, backups *backup.Manager, opts ...Option) *Executor {
	e := &Executor{
		layout:   layout,
		backups:  backups,
		now:      time.Now,
		defaults: DefaultDays,
		logger:   logging.Get("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes or previews the action id. It never returns nil.
func (e *Executor) Run(id types.ActionID, opts Options) *Result {
	switch id {
	case types.ActionListBackups:
		return e.ListBackups()
	case types.ActionRestoreBackup:
		return e.Restore(opts.BackupID)
	}

	def, ok := actions.Lookup(id)
	if !ok {
		return failure(id, fmt.Errorf("unknown action %q", id))
	}
	if def.Safety == types.SafetyInfo {
		return skip(id, "informational action; nothing to execute")
	}

	days := e.days(id, opts.Days)
	if def.Aged && days < 1 {
		return failure(id, fmt.Errorf("--days must be at least 1, got %d", days))
	}

	e.logger.Debug("running action", "action", id, "confirm", opts.Confirm, "days", days)

	switch id {
	case types.ActionDisableNonessentialTraffic:
		return e.disableNonessentialTraffic(def, opts)
	case types.ActionSetRetentionPeriod:
		return e.setRetentionPeriod(def, days, opts)
	}

	p, err := e.plan(def, days)
	if err != nil {
		return failure(id, err)
	}
	return e.execute(p, opts)
}

func (e *Executor) days(id types.ActionID, days int) int {
	if days != 0 {
		return days
	}
	switch id {
	case types.ActionPruneOldSessions:
		return e.defaults.SessionDays
	case types.ActionPruneDebugLogs:
		return e.defaults.DebugDays
	case types.ActionSetRetentionPeriod:
		return e.defaults.RetentionDays
	}
	return 0
}

// plan describes how one target-based action finds, saves and removes its
// targets.
type plan struct {
	def  actions.Definition
	days int

	// root must exist or the action is skipped with missing.
	root    string
	missing string

	find  func(*targets.Finder) ([]types.FilePreview, error)
	empty string

	describe func(n int, size int64) string

	// save runs once before any mutation. When nil every target gets a
	// record-only manifest entry instead.
	save func(tx *backup.Transaction, targets []types.FilePreview) error

	mutate func(target types.FilePreview) error
	done   func(removed int, size int64) string

	// finish, when set, adds action-specific fields to an executed result.
	finish func(*Result)
}

// execute drives a target-based plan through skip, access check, preview,
// backup and mutation.
func (e *Executor) execute(p *plan, opts Options) *Result {
	id := p.def.ID

	if !paths.Exists(p.root) {
		return skip(id, p.missing)
	}

	finder := targets.New(e.layout, targets.WithClock(e.now), targets.Strict())
	found, err := p.find(finder)
	if err != nil {
		return failure(id, err)
	}
	if len(found) == 0 {
		return skip(id, p.empty)
	}

	if err := checkAccess(found); err != nil {
		return failure(id, fmt.Errorf("%w. Run with appropriate permissions or exclude this path", err))
	}

	total := types.TotalSize(found)
	if !opts.Confirm {
		res := &Result{
			Action:         id,
			Status:         StatusPreview,
			Files:          found,
			TotalSize:      total,
			TotalSizeHuman: types.FormatSize(total),
			Warning:        p.def.Warning,
			BackupLocation: filepath.Join(e.backups.Root(), "<timestamp>"),
		}
		if p.def.Aged {
			res.DaysThreshold = p.days
		}
		return res
	}

	tx, err := e.backups.CreateTransaction(string(id), p.describe(len(found), total))
	if err != nil {
		return failure(id, err)
	}
	res := &Result{Action: id, BackupID: tx.ID(), Backup: tx.Dir()}

	if p.save != nil {
		if err := p.save(tx, found); err != nil {
			failed := failure(id, fmt.Errorf("backup failed, nothing was changed: %w", err))
			if derr := e.backups.Discard(tx); derr != nil {
				e.logger.Warn("failed to discard incomplete backup", "id", tx.ID(), "error", derr)
				failed.BackupID, failed.Backup = tx.ID(), tx.Dir()
				failed.Errors = append(failed.Errors, fmt.Sprintf("incomplete backup %s was not removed: %v", tx.ID(), derr))
			}
			return failed
		}
	}

	var freed int64
	for _, t := range found {
		if p.save == nil {
			if err := e.backups.RecordDeletion(tx, t.Path, t.Size); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", t.Path, err))
				continue
			}
		}

		err := p.mutate(t)
		switch {
		case err == nil:
			res.Removed++
			freed += t.Size
			e.logger.Info("removed", "action", id, "path", t.Path, "size", t.Size)
		case errors.Is(err, types.ErrNotFound):
			res.Skipped++
			e.logger.Debug("target vanished", "action", id, "path", t.Path)
		default:
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", t.Path, err))
			e.logger.Warn("failed to remove", "action", id, "path", t.Path, "error", err)
		}
	}

	res.SizeFreed = freed
	res.SizeFreedHuman = types.FormatSize(freed)
	if p.save != nil {
		res.RestoreCmd = restoreCommand(tx.ID())
	}
	if p.finish != nil {
		p.finish(res)
	}

	if len(res.Errors) > 0 {
		res.Status = StatusPartial
		res.Message = fmt.Sprintf("%d of %d targets processed, %d failed", res.Removed, len(found), len(res.Errors))
		return res
	}
	res.Status = StatusSuccess
	res.Message = p.done(res.Removed, freed)
	return res
}

// ListBackups reports every backup transaction, newest first.
func (e *Executor) ListBackups() *Result {
	list, err := e.backups.List()
	if err != nil {
		return failure(types.ActionListBackups, err)
	}
	msg := fmt.Sprintf("%d backups in %s", len(list), e.backups.Root())
	if len(list) == 0 {
		msg = "No backups found."
	}
	return &Result{
		Action:  types.ActionListBackups,
		Status:  StatusSuccess,
		Message: msg,
		Backups: list,
	}
}

// Restore puts back the artifacts of a backup transaction.
func (e *Executor) Restore(id string) *Result {
	if id == "" {
		return failure(types.ActionRestoreBackup, errors.New("backup id required"))
	}

	rr, err := e.backups.Restore(id)
	if err != nil {
		return failure(types.ActionRestoreBackup, err)
	}

	res := &Result{
		Action:   types.ActionRestoreBackup,
		Status:   StatusSuccess,
		BackupID: rr.ID,
		Backup:   filepath.Join(e.backups.Root(), rr.ID),
		Restore:  rr,
		Errors:   rr.Errors,
		Message:  fmt.Sprintf("Restored %d items from %s", len(rr.Restored), rr.ID),
	}
	if !rr.OK() {
		res.Status = StatusPartial
	}
	return res
}

func restoreCommand(id string) string {
	return fmt.Sprintf("%s %s %s", actions.Command, types.ActionRestoreBackup, id)
}

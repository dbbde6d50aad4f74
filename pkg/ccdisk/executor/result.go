package executor

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/backup"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Status is the outcome of running an action.
type Status string

// Result statuses.
const (
	StatusSkip    Status = "skip"
	StatusPreview Status = "preview"
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Result describes one action invocation. Which fields are set depends on
// the status and the action.
type Result struct {
	Action  types.ActionID `json:"action" yaml:"action"`
	Status  Status         `json:"status" yaml:"status"`
	Reason  string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty"`

	// Preview.
	Files          []types.FilePreview `json:"files,omitempty" yaml:"files,omitempty"`
	TotalSize      int64               `json:"total_size,omitempty" yaml:"total_size,omitempty"`
	TotalSizeHuman string              `json:"total_size_human,omitempty" yaml:"total_size_human,omitempty"`
	Warning        string              `json:"warning,omitempty" yaml:"warning,omitempty"`
	BackupLocation string              `json:"backup_location,omitempty" yaml:"backup_location,omitempty"`
	DaysThreshold  int                 `json:"days_threshold,omitempty" yaml:"days_threshold,omitempty"`

	// Settings changes.
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Change string `json:"change,omitempty" yaml:"change,omitempty"`

	// Execution.
	BackupID       string   `json:"backup_id,omitempty" yaml:"backup_id,omitempty"`
	Backup         string   `json:"backup,omitempty" yaml:"backup,omitempty"`
	Removed        int      `json:"removed,omitempty" yaml:"removed,omitempty"`
	Skipped        int      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	SizeFreed      int64    `json:"size_freed,omitempty" yaml:"size_freed,omitempty"`
	SizeFreedHuman string   `json:"size_freed_human,omitempty" yaml:"size_freed_human,omitempty"`
	Disabled       string   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	RestoreCmd     string   `json:"restore_cmd,omitempty" yaml:"restore_cmd,omitempty"`
	Errors         []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Backup maintenance.
	Backups []backup.Summary      `json:"backups,omitempty" yaml:"backups,omitempty"`
	Restore *backup.RestoreResult `json:"restore,omitempty" yaml:"restore,omitempty"`
}

// Failed reports whether the result should map to a non-zero exit.
func (r *Result) Failed() bool {
	return r.Status == StatusError
}

// Err returns nil unless the action failed or only partly completed.
// Partial results match types.ErrPartialFailure.
func (r *Result) Err() error {
	switch r.Status {
	case StatusPartial:
		return fmt.Errorf("%s: %w: %s", r.Action, types.ErrPartialFailure, strings.Join(r.Errors, "; "))
	case StatusError:
		return fmt.Errorf("%s: %s", r.Action, r.Message)
	}
	return nil
}

func skip(id types.ActionID, reason string) *Result {
	return &Result{Action: id, Status: StatusSkip, Reason: reason}
}

func failure(id types.ActionID, err error) *Result {
	return &Result{Action: id, Status: StatusError, Message: err.Error(), Errors: []string{err.Error()}}
}

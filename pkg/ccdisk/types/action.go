package types

// ActionID is a stable action identifier, used both as the key from a
// finding to its remediation and as the CLI verb.
type ActionID string

// Action identifiers.
const (
	ActionDisablePrimaryState        ActionID = "disable-primary-state"
	ActionClearPluginCache           ActionID = "clear-plugin-cache"
	ActionPruneOldPluginVersions     ActionID = "prune-old-plugin-versions"
	ActionPruneOldSessions           ActionID = "prune-old-sessions"
	ActionPruneDebugLogs             ActionID = "prune-debug-logs"
	ActionClearMiscCaches            ActionID = "clear-misc-caches"
	ActionRemoveOrphanedProjects     ActionID = "remove-orphaned-projects"
	ActionDisableNonessentialTraffic ActionID = "disable-nonessential-traffic"
	ActionSetRetentionPeriod         ActionID = "set-retention-period"
	ActionListBackups                ActionID = "list-backups"
	ActionRestoreBackup              ActionID = "restore-backup"

	// Informational actions have no fix command.
	ActionShowWSLWorkarounds ActionID = "show-wsl-workarounds"
	ActionTrimMemoryFiles    ActionID = "trim-memory-files"
)

// Safety classifies how dangerous an action is.
type Safety string

// Safety classes.
const (
	SafetySafe        Safety = "safe"
	SafetyCaution     Safety = "caution"
	SafetyDestructive Safety = "destructive"
	SafetyInfo        Safety = "info"
)

// FilePreview is one unit (file or directory subtree) an action would touch.
type FilePreview struct {
	Path      string `json:"path" yaml:"path"`
	Size      int64  `json:"size" yaml:"size"`
	SizeHuman string `json:"size_human" yaml:"size_human"`
	AgeDays   int    `json:"age_days" yaml:"age_days"`
}

// NewFilePreview builds a preview with its formatted size filled in.
func NewFilePreview(path string, size int64, ageDays int) FilePreview {
	return FilePreview{
		Path:      path,
		Size:      size,
		SizeHuman: FormatSize(size),
		AgeDays:   ageDays,
	}
}

// TotalSize sums the sizes of previews.
func TotalSize(previews []FilePreview) int64 {
	var total int64
	for _, p := range previews {
		total += p.Size
	}
	return total
}

// RemediationAction is a concrete, previewable operation addressing one or
// more findings.
type RemediationAction struct {
	ID             ActionID      `json:"id" yaml:"id"`
	Title          string        `json:"title" yaml:"title"`
	Safety         Safety        `json:"safety" yaml:"safety"`
	Affects        []string      `json:"affects" yaml:"affects"`
	FixCommand     string        `json:"fix_command" yaml:"fix_command"`
	FilePreview    []FilePreview `json:"file_preview" yaml:"file_preview"`
	TotalSize      int64         `json:"total_size" yaml:"total_size"`
	TotalSizeHuman string        `json:"total_size_human" yaml:"total_size_human"`
	Notes          string        `json:"notes" yaml:"notes"`
}

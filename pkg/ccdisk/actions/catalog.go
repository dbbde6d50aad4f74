package actions

import "github.com/jamesainslie/ccdisk/pkg/ccdisk/types"

// Definition is the static description of an action kind.
type Definition struct {
	ID      types.ActionID
	Safety  types.Safety
	Affects []string
	Notes   string
	Warning string

	// Aged actions take a --days threshold.
	Aged bool
}

// Priority is the fixed order actions are reported in.
var Priority = []types.ActionID{
	types.ActionDisablePrimaryState,
	types.ActionClearPluginCache,
	types.ActionDisableNonessentialTraffic,
	types.ActionSetRetentionPeriod,
	types.ActionPruneOldSessions,
	types.ActionPruneDebugLogs,
	types.ActionShowWSLWorkarounds,
	types.ActionTrimMemoryFiles,
	types.ActionRemoveOrphanedProjects,
	types.ActionPruneOldPluginVersions,
	types.ActionClearMiscCaches,
}

var catalog = map[types.ActionID]Definition{
	types.ActionDisablePrimaryState: {
		Safety:  types.SafetyDestructive,
		Affects: []string{"preferences", "auth", "history"},
		Notes:   "Requires re-authentication after reset. A backup is created before the file is disabled.",
		Warning: "This will require re-authentication on next start",
	},
	types.ActionClearPluginCache: {
		Safety:  types.SafetyCaution,
		Affects: []string{"plugin_cache"},
		Notes:   "Plugins will be re-downloaded on next use. Running plugins may break!",
		Warning: "Plugins will be re-downloaded on next use. Running plugins may break!",
	},
	types.ActionDisableNonessentialTraffic: {
		Safety:  types.SafetyCaution,
		Affects: []string{"telemetry", "bug_reporting", "notices"},
		Notes:   "May affect telemetry and bug reporting",
	},
	types.ActionSetRetentionPeriod: {
		Safety:  types.SafetySafe,
		Affects: []string{"old_sessions"},
		Notes:   "Sessions inactive longer than N days are deleted at startup",
		Aged:    true,
	},
	types.ActionPruneOldSessions: {
		Safety:  types.SafetyDestructive,
		Affects: []string{"session_data"},
		Notes:   "Creates a backup before deletion",
		Aged:    true,
	},
	types.ActionPruneDebugLogs: {
		Safety:  types.SafetySafe,
		Affects: []string{"debug_logs"},
		Notes:   "Debug logs are not critical for normal operation",
		Aged:    true,
	},
	types.ActionShowWSLWorkarounds: {
		Safety:  types.SafetyInfo,
		Affects: []string{},
		Notes:   "Informational only - see https://github.com/anthropics/claude-code/issues/14352",
	},
	types.ActionTrimMemoryFiles: {
		Safety:  types.SafetyInfo,
		Affects: []string{},
		Notes:   "Informational - review CLAUDE.md size and content",
	},
	types.ActionRemoveOrphanedProjects: {
		Safety:  types.SafetyDestructive,
		Affects: []string{"orphaned_projects"},
		Notes:   "Creates a backup before deletion",
		Warning: "This will delete project history for paths that no longer exist",
	},
	types.ActionPruneOldPluginVersions: {
		Safety:  types.SafetyCaution,
		Affects: []string{"old_plugin_versions"},
		Notes:   "Keeps latest version of each plugin. Running plugins may break!",
		Warning: "Running plugins may break! Restart after cleanup.",
	},
	types.ActionClearMiscCaches: {
		Safety:  types.SafetySafe,
		Affects: []string{"cache_dirs"},
		Notes:   "Directories will be recreated empty on next use",
	},
}

// Lookup returns the definition of id.
func Lookup(id types.ActionID) (Definition, bool) {
	def, ok := catalog[id]
	if ok {
		def.ID = id
	}
	return def, ok
}

// Executable reports whether id has a fix command, including the backup
// maintenance verbs.
func Executable(id types.ActionID) bool {
	switch id {
	case types.ActionListBackups, types.ActionRestoreBackup:
		return true
	}
	def, ok := Lookup(id)
	return ok && def.Safety != types.SafetyInfo
}

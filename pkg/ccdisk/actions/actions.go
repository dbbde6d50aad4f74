// Package actions maps findings to concrete remediation actions with
// file-level previews read fresh from disk.
package actions

import (
	"fmt"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/targets"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/samber/lo"
)

// Command is the CLI binary name used in fix commands.
const Command = "ccdisk"

// Options carries the default thresholds used in previews.
type Options struct {
	SessionDays   int
	DebugDays     int
	RetentionDays int

	// Finder overrides the target finder, mainly for tests.
	Finder *targets.Finder
}

// Generate returns one action per distinct recommended action id across
// findings, ordered by Priority. Unknown ids are dropped.
func Generate(findings []types.Finding, layout *paths.Layout, opts Options) []types.RemediationAction {
	logger := logging.Get("actions")

	ids := lo.Uniq(lo.FlatMap(findings, func(f types.Finding, _ int) []types.ActionID {
		return f.RecommendedActions
	}))

	for _, id := range lo.Without(ids, Priority...) {
		logger.Warn("dropping unknown action", "action", id)
	}

	finder := opts.Finder
	if finder == nil {
		finder = targets.New(layout)
	}

	out := make([]types.RemediationAction, 0, len(ids))
	for _, id := range Priority {
		if !lo.Contains(ids, id) {
			continue
		}
		action, err := build(id, layout, finder, opts)
		if err != nil {
			logger.Warn("building action", "action", id, "error", err)
		}
		out = append(out, action)
	}
	return out
}

func build(id types.ActionID, layout *paths.Layout, f *targets.Finder, opts Options) (types.RemediationAction, error) {
	def, _ := Lookup(id)

	var (
		title    string
		fix      = fmt.Sprintf("%s %s", Command, id)
		previews []types.FilePreview
		err      error
	)

	switch id {
	case types.ActionDisablePrimaryState:
		title = fmt.Sprintf("Backup & disable %s (requires re-login)", layout.ClaudeJSON)
		previews, err = f.PrimaryState()
	case types.ActionClearPluginCache:
		previews, err = f.PluginCache()
		title = fmt.Sprintf("Delete plugin cache (%d plugins)", len(previews))
	case types.ActionDisableNonessentialTraffic:
		title = "Disable non-essential network traffic"
	case types.ActionSetRetentionPeriod:
		title = "Set session cleanup period (auto-delete old sessions)"
		fix = fmt.Sprintf("%s --days %d", fix, opts.RetentionDays)
	case types.ActionPruneOldSessions:
		previews, err = f.OldSessions(opts.SessionDays)
		title = fmt.Sprintf("Delete old session files (%d files >%d days)", len(previews), opts.SessionDays)
		fix = fmt.Sprintf("%s --days %d", fix, opts.SessionDays)
	case types.ActionPruneDebugLogs:
		previews, err = f.OldDebugLogs(opts.DebugDays)
		title = fmt.Sprintf("Delete old debug logs (%d files >%d days)", len(previews), opts.DebugDays)
		fix = fmt.Sprintf("%s --days %d", fix, opts.DebugDays)
	case types.ActionShowWSLWorkarounds:
		title = "Show WSL2 workarounds"
		fix = ""
	case types.ActionTrimMemoryFiles:
		title = "Suggest trimming memory files"
		fix = ""
	case types.ActionRemoveOrphanedProjects:
		previews, err = f.OrphanedProjects()
		title = fmt.Sprintf("Delete orphaned projects (%d dirs)", len(previews))
	case types.ActionPruneOldPluginVersions:
		previews, err = f.OldPluginVersions()
		title = fmt.Sprintf("Delete old plugin versions (%d versions)", len(previews))
	case types.ActionClearMiscCaches:
		previews, err = f.MiscCaches()
		title = fmt.Sprintf("Clear cache directories (%d dirs)", len(previews))
	}

	if previews == nil {
		previews = []types.FilePreview{}
	}
	total := types.TotalSize(previews)

	return types.RemediationAction{
		ID:             id,
		Title:          title,
		Safety:         def.Safety,
		Affects:        def.Affects,
		FixCommand:     fix,
		FilePreview:    previews,
		TotalSize:      total,
		TotalSizeHuman: types.FormatSize(total),
		Notes:          def.Notes,
	}, err
}

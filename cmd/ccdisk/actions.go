package main

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/actions"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/spf13/cobra"
)

var actionShort = map[types.ActionID]string{
	types.ActionDisablePrimaryState:        "Back up and disable the primary state file",
	types.ActionClearPluginCache:           "Delete the plugin cache",
	types.ActionDisableNonessentialTraffic: "Turn off non-essential network traffic in settings.json",
	types.ActionSetRetentionPeriod:         "Set cleanupPeriodDays in settings.json",
	types.ActionPruneOldSessions:           "Delete session transcripts older than --days",
	types.ActionPruneDebugLogs:             "Delete debug logs older than --days",
	types.ActionRemoveOrphanedProjects:     "Delete project history for paths that no longer exist",
	types.ActionPruneOldPluginVersions:     "Keep only the newest version of each cached plugin",
	types.ActionClearMiscCaches:            "Empty the regenerable cache directories",
}

// newActionCmds returns one subcommand per executable fix, in report order.
func (a *app) newActionCmds() []*cobra.Command {
	var cmds []*cobra.Command
	for _, id := range actions.Priority {
		if !actions.Executable(id) {
			continue
		}
		cmds = append(cmds, a.newActionCmd(id))
	}
	return cmds
}

func (a *app) newActionCmd(id types.ActionID) *cobra.Command {
	def, _ := actions.Lookup(id)
	var opts executor.Options

	long := fmt.Sprintf("%s.\n\nSafety: %s", actionShort[id], def.Safety)
	if def.Notes != "" {
		long += "\n" + def.Notes
	}
	long += "\n\nWithout --confirm only a preview is shown."

	cmd := &cobra.Command{
		Use:   string(id),
		Short: actionShort[id],
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if def.Aged && cmd.Flags().Changed("days") && opts.Days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", opts.Days)
			}
			return a.printResult(cmd, a.executor().Run(id, opts))
		},
	}

	cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "execute the action instead of previewing it")
	if def.Aged {
		cmd.Flags().IntVar(&opts.Days, "days", 0, "age threshold in days (default from configuration)")
	}
	return cmd
}

func (a *app) newListBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   string(types.ActionListBackups),
		Short: "List backup transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printResult(cmd, a.executor().Run(types.ActionListBackups, executor.Options{}))
		},
	}
}

func (a *app) newRestoreBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   string(types.ActionRestoreBackup) + " <id>",
		Short: "Restore the artifacts of a backup transaction",
		Long: strings.TrimSpace(`
Restore puts back every artifact recorded in a backup transaction. Archived
directories are extracted into their original parent and single files are
copied back. Record-only entries (regenerable caches) are listed as skipped.

The id is a transaction directory name from list-backups, or "latest".`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printResult(cmd, a.executor().Run(types.ActionRestoreBackup, executor.Options{BackupID: args[0]}))
		},
	}
}

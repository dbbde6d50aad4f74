package main

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/backup"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/config"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/output"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/spf13/cobra"
)

// errReported is returned after an error result has already been printed,
// so main exits non-zero without printing it again.
var errReported = errors.New("action failed")

// skipSetup marks commands that run without loading configuration.
const skipSetup = "skip-setup"

// app holds the global flags and the state prepared before each command.
type app struct {
	cfgFile string
	jsonOut bool
	verbose bool
	format  string

	cfg    *config.Config
	layout *paths.Layout
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:   "ccdisk",
		Short: "Diagnose and reclaim disk space used by Claude Code",
		Long: `ccdisk inspects the Claude Code state directory (~/.claude or
$CLAUDE_CONFIG_DIR) and the primary state file (~/.claude.json), reports
conditions that waste disk space or slow startup, and runs reversible fixes.

Every fix previews what it would touch unless --confirm is given. Destructive
fixes write a backup transaction first; restore one with restore-backup.

Examples:
  ccdisk scan                         # Diagnose and show disk usage
  ccdisk scan --json                  # Full report as JSON
  ccdisk prune-old-sessions --days 60 # Preview session pruning
  ccdisk clear-plugin-cache --confirm # Execute a fix
  ccdisk list-backups                 # Show backup transactions
  ccdisk restore-backup latest        # Undo the newest fix
  ccdisk history diff                 # Compare the last two scans`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logging.Close() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/ccdisk/config.yaml)")
	flags.BoolVarP(&a.jsonOut, "json", "j", false, "output JSON (same as --output json)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug output on stderr")
	flags.StringVarP(&a.format, "output", "o", output.Default, fmt.Sprintf("output format %v", output.Available()))

	root.AddCommand(
		a.newScanCmd(),
		a.newListBackupsCmd(),
		a.newRestoreBackupCmd(),
		a.newHistoryCmd(),
		a.newConfigCmd(),
		newVersionCmd(),
	)
	for _, cmd := range a.newActionCmds() {
		root.AddCommand(cmd)
	}

	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// setup loads configuration, starts logging and resolves the layout.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if _, ok := cmd.Annotations[skipSetup]; ok {
		return nil
	}
	if a.jsonOut {
		a.format = "json"
	}
	if _, err := output.Get(a.format); err != nil {
		return err
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}

	layout, err := paths.Resolve(paths.Options{
		ConfigDir:  cfg.ConfigDir,
		StateFile:  cfg.StateFile,
		BackupRoot: cfg.Backup.Root,
	})
	if err != nil {
		return err
	}
	a.layout = layout

	logging.Get("cli").Debug("starting",
		"command", cmd.CommandPath(),
		"claude_dir", layout.ClaudeDir,
		"backup_root", layout.BackupRoot)
	return nil
}

func (a *app) initLogging() error {
	maxBytes, err := a.cfg.LogMaxBytes()
	if err != nil {
		return err
	}

	lc := logging.Config{
		Level: a.cfg.Logging.Level,
		Path:  a.cfg.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSize:    maxBytes,
			MaxAge:     a.cfg.Logging.Rotation.MaxAge,
			MaxBackups: a.cfg.Logging.Rotation.MaxBackups,
		},
	}
	if a.verbose {
		lc.ConsoleLevel = "debug"
	}
	return logging.Init(lc)
}

func (a *app) executor() *executor.Executor {
	backups := backup.New(a.layout.BackupRoot, backup.WithClock(a.now))
	return executor.New(a.layout, backups,
		executor.WithClock(a.now),
		executor.WithDefaults(executor.Defaults{
			SessionDays:   a.cfg.Prune.SessionDays,
			DebugDays:     a.cfg.Prune.DebugDays,
			RetentionDays: a.cfg.Retention.Days,
		}),
	)
}

// render formats through the selected formatter and writes to the command
// output.
func (a *app) render(cmd *cobra.Command, fn func(output.Formatter, *bytes.Buffer) error) error {
	f, err := output.Get(a.format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := fn(f, &buf); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// printResult renders an action result and maps the error status to a
// non-zero exit. Partial results exit zero with their errors printed.
func (a *app) printResult(cmd *cobra.Command, res *executor.Result) error {
	if err := a.render(cmd, func(f output.Formatter, w *bytes.Buffer) error {
		return f.FormatResult(w, res)
	}); err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		logging.Get("cli").Warn("action did not complete", "error", err)
	}
	if res.Failed() {
		return errReported
	}
	return nil
}

package main

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/output"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/scan"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/spf13/cobra"
)

func (a *app) newScanCmd() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Diagnose disk usage and list recommended fixes",
		Long: `Scan measures the state directory, evaluates every detector and lists
the fixes that address what was found. It never modifies the filesystem
apart from recording the report in the scan history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.scanner()
			report := s.Scan()

			r := &output.Report{ScanReport: report}
			if a.format == output.Default {
				r.Usage = s.Usage()
			}

			if a.cfg.History.Enabled && !noHistory {
				if err := a.record(report); err != nil {
					logging.Get("cli").Warn("scan history not saved", "error", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: scan history not saved: %v\n", err)
				}
			}

			return a.render(cmd, func(f output.Formatter, w *bytes.Buffer) error {
				return f.FormatReport(w, r)
			})
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "don't record this scan in the history")
	return cmd
}

func (a *app) scanner() *scan.Scanner {
	return scan.New(a.layout,
		scan.WithClock(a.now),
		scan.WithThresholds(a.cfg.Prune.SessionDays, a.cfg.Prune.DebugDays, a.cfg.Retention.Days),
	)
}

func (a *app) openHistory() (*history.Store, error) {
	return history.Open(a.cfg.History.Path, history.WithRetention(a.cfg.History.RetentionDays))
}

// record saves report and drops entries past the retention period.
func (a *app) record(report *types.ScanReport) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(report)
	if err != nil {
		return err
	}
	pruned, err := store.Prune(a.cfg.History.RetentionDays, a.now())
	if err != nil {
		return err
	}
	logging.Get("cli").Debug("scan recorded", "id", id, "pruned", pruned)
	return nil
}

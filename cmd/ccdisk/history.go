package main

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/output"
	"github.com/spf13/cobra"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int

	list := func(cmd *cobra.Command, _ []string) error {
		store, err := a.openHistory()
		if err != nil {
			return fmt.Errorf("opening scan history: %w", err)
		}
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			return fmt.Errorf("listing scan history: %w", err)
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		return a.render(cmd, func(f output.Formatter, w *bytes.Buffer) error {
			return f.FormatHistory(w, entries)
		})
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View and compare past scans",
		Long: `Every scan is recorded in a local database so that disk usage can be
compared over time. Ids are listed by "history list"; "latest" and
"previous" name the two newest scans.`,
		Args: cobra.NoArgs,
		RunE: list,
	}
	cmd.PersistentFlags().IntVarP(&limit, "limit", "l", 20, "maximum number of entries to list (0 for all)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recorded scans, newest first",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a recorded scan report",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runHistoryShow,
		},
		&cobra.Command{
			Use:   "diff [from] [to]",
			Short: "Compare two recorded scans (default: previous and latest)",
			Args:  cobra.MaximumNArgs(2),
			RunE:  a.runHistoryDiff,
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Delete scans older than history.retention_days",
			Args:  cobra.NoArgs,
			RunE:  a.runHistoryPrune,
		},
	)
	return cmd
}

func (a *app) runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("opening scan history: %w", err)
	}
	defer store.Close()

	report, err := store.Get(args[0])
	if err != nil {
		return err
	}
	return a.render(cmd, func(f output.Formatter, w *bytes.Buffer) error {
		return f.FormatReport(w, &output.Report{ScanReport: report})
	})
}

func (a *app) runHistoryDiff(cmd *cobra.Command, args []string) error {
	fromID, toID := history.Previous, history.Latest
	switch len(args) {
	case 1:
		fromID = args[0]
	case 2:
		fromID, toID = args[0], args[1]
	}

	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("opening scan history: %w", err)
	}
	defer store.Close()

	from, err := store.Get(fromID)
	if err != nil {
		return err
	}
	to, err := store.Get(toID)
	if err != nil {
		return err
	}

	c, err := history.Compare(fromID, from, toID, to)
	if err != nil {
		return err
	}
	return a.render(cmd, func(f output.Formatter, w *bytes.Buffer) error {
		return f.FormatComparison(w, c)
	})
}

func (a *app) runHistoryPrune(cmd *cobra.Command, _ []string) error {
	days := a.cfg.History.RetentionDays
	if days <= 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "history.retention_days is 0; nothing is pruned.")
		return nil
	}

	store, err := a.openHistory()
	if err != nil {
		return fmt.Errorf("opening scan history: %w", err)
	}
	defer store.Close()

	n, err := store.Prune(days, a.now())
	if err != nil {
		return fmt.Errorf("pruning scan history: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d scans older than %d days.\n", n, days)
	return nil
}

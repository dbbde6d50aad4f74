package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/scan"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

const (
	// barWidth is the number of cells in a usage bar.
	barWidth = 36

	// previewLimit caps the files listed in an action preview.
	previewLimit = 10

	// topPlugins is how many plugins the usage chart names individually.
	topPlugins = 3
)

// PrettyFormatter formats output with colors and styling using lipgloss.
type PrettyFormatter struct{}

// FormatReport writes the header, usage chart, findings and actions.
func (f *PrettyFormatter) FormatReport(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.reportHeader(r))
	w.WriteString("\n")

	if r.Usage != nil {
		w.WriteString(f.usageChart(r.Usage))
	}
	w.WriteString(f.findings(r.Findings))
	if len(r.Actions) > 0 {
		w.WriteString(f.actions(r.Actions))
	}

	hints := []string{
		MutedStyle.Render("Run a fix command to preview it, add --confirm to execute"),
		MutedStyle.Render("Use -o json for machine-readable output"),
	}
	w.WriteString(FooterBox.Render(strings.Join(hints, "\n")))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) reportHeader(r *Report) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s",
		LabelStyle.Render("Source:"), ValueStyle.Render(r.Paths.ClaudeDir)))

	info := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Size:"),
			SizeStyle.Render(types.FormatSize(r.Metrics.Size(types.AreaClaudeDir)))),
		fmt.Sprintf("%s %s", LabelStyle.Render("State file:"),
			SizeStyle.Render(types.FormatSize(r.Metrics.Size(types.AreaClaudeJSON)))),
		fmt.Sprintf("%s %s", LabelStyle.Render("Findings:"),
			ValueStyle.Render(fmt.Sprintf("%d", len(r.Findings)))),
	}
	lines = append(lines, strings.Join(info, "  "))

	env := r.Env.OS
	if r.Env.OSVersion != "" {
		env += " " + r.Env.OSVersion
	}
	if r.Env.IsWSL {
		env += " (WSL)"
	}
	if env != "" {
		lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Environment:"), MutedStyle.Render(env)))
	}

	if errs := r.Metrics.Count(types.CountWalkErrors); errs > 0 {
		lines = append(lines, WarningStyle.Render(fmt.Sprintf("%d entries could not be read", errs)))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) usageChart(u *scan.Usage) string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render(fmt.Sprintf("Disk Usage (%s)", types.FormatSize(u.Total))))
	sb.WriteString("\n\n")

	if u.PluginCache > 0 {
		sb.WriteString(usageRow("plugins/cache", u.PluginCache, u.Total))
		for _, p := range u.Plugins[:min(topPlugins, len(u.Plugins))] {
			label := p.Name
			if p.Versions > 1 {
				label = fmt.Sprintf("%s (%d versions)", p.Name, p.Versions)
			}
			sb.WriteString(detailRow(label, p.Size))
		}
		if len(u.Plugins) > topPlugins {
			var rest int64
			for _, p := range u.Plugins[topPlugins:] {
				rest += p.Size
			}
			sb.WriteString(detailRow("other", rest))
		}
		sb.WriteString("\n")
	}

	if u.Projects > 0 {
		sb.WriteString(usageRow("projects", u.Projects, u.Total))
		sb.WriteString(detailRow(fmt.Sprintf("active (%d dirs)", u.ActiveProjects), u.ActiveSize))
		sb.WriteString(detailRow(fmt.Sprintf("orphaned (%d dirs)", u.OrphanedProjects), u.OrphanedSize))
		sb.WriteString("\n")
	}

	if u.Other > 0 {
		sb.WriteString(usageRow("other", u.Other, u.Total))
		sb.WriteString(MutedStyle.Render("  └─ telemetry, debug, caches, plans, todos"))
		sb.WriteString("\n\n")
	}

	if u.Total == 0 {
		sb.WriteString(MutedStyle.Render("  Nothing stored yet"))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func usageRow(label string, size, total int64) string {
	var fraction float64
	if total > 0 {
		fraction = float64(size) / float64(total)
	}
	return fmt.Sprintf("%-14s %s  %s %s\n",
		label,
		bar(fraction),
		SizeStyle.Render(padLeft(types.FormatSize(size), 9)),
		MutedStyle.Render(fmt.Sprintf("(%.0f%%)", fraction*100)))
}

func detailRow(label string, size int64) string {
	return fmt.Sprintf("  └─ %-44s %s\n", label, padLeft(types.FormatSize(size), 10))
}

func bar(fraction float64) string {
	filled := int(fraction * barWidth)
	filled = max(0, min(filled, barWidth))
	return BarStyle.Render(strings.Repeat("█", filled)) +
		MutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

func (f *PrettyFormatter) findings(findings []types.Finding) string {
	if len(findings) == 0 {
		return SuccessStyle.Render("No cleanup recommendations. Disk usage looks healthy!") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(fmt.Sprintf("Findings (%d)", len(findings))))
	sb.WriteString("\n")

	for _, finding := range findings {
		risk := RiskStyle(finding.Risk).Render(fmt.Sprintf("%-8s", strings.ToUpper(string(finding.Risk))))
		fmt.Fprintf(&sb, "  %s %s  %s\n", risk, ValueStyle.Render(finding.ID), finding.Title)
		if finding.WhyItMatters != "" {
			sb.WriteString(MutedStyle.Render("           " + finding.WhyItMatters))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *PrettyFormatter) actions(actions []types.RemediationAction) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Actions"))
	sb.WriteString("\n")

	for _, a := range actions {
		safety := SafetyStyle(a.Safety).Render("[" + string(a.Safety) + "]")
		fmt.Fprintf(&sb, "  %s %s", ValueStyle.Render(string(a.ID)), safety)
		if a.TotalSize > 0 {
			fmt.Fprintf(&sb, "  %s", SizeStyle.Render(a.TotalSizeHuman))
		}
		sb.WriteString("\n")
		if a.Title != "" {
			fmt.Fprintf(&sb, "    %s\n", a.Title)
		}
		if a.FixCommand != "" {
			fmt.Fprintf(&sb, "    %s\n", MutedStyle.Render("$ "+a.FixCommand))
		} else if a.Notes != "" {
			fmt.Fprintf(&sb, "    %s\n", MutedStyle.Render(a.Notes))
		}
	}
	return sb.String()
}

// FormatResult writes an action result in the layout of its status.
func (f *PrettyFormatter) FormatResult(w *bytes.Buffer, r *executor.Result) error {
	switch r.Status {
	case executor.StatusPreview:
		f.preview(w, r)
	case executor.StatusSuccess, executor.StatusPartial:
		f.executed(w, r)
	case executor.StatusSkip:
		fmt.Fprintf(w, "%s %s\n", MutedStyle.Render("[SKIPPED]"), r.Action)
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Reason:"), r.Reason)
	default:
		body := fmt.Sprintf("%s %s\n%s %s",
			ErrorStyle.Bold(true).Render("[ERROR]"), r.Action,
			LabelStyle.Render("Error:"), r.Message)
		w.WriteString(ErrorBox.Render(body))
		w.WriteString("\n")
	}
	return nil
}

func (f *PrettyFormatter) preview(w *bytes.Buffer, r *executor.Result) {
	w.WriteString(HeaderBox.Render(TitleStyle.Render("PREVIEW: " + string(r.Action))))
	w.WriteString("\n")

	if r.Path != "" {
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Would update:"), PathStyle.Render(r.Path))
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Change:"), r.Change)
	}

	if len(r.Files) > 0 {
		fmt.Fprintf(w, "Files that WOULD be affected (%d total):\n\n", len(r.Files))
		for _, file := range r.Files[:min(previewLimit, len(r.Files))] {
			age := ""
			if file.AgeDays > 0 {
				age = MutedStyle.Render(fmt.Sprintf(" %dd old", file.AgeDays))
			}
			fmt.Fprintf(w, "  %s (%s)%s\n", PathStyle.Render(file.Path), SizeStyle.Render(file.SizeHuman), age)
		}
		if len(r.Files) > previewLimit {
			w.WriteString(MutedStyle.Render(fmt.Sprintf("  ... and %d more files", len(r.Files)-previewLimit)))
			w.WriteString("\n")
		}
		fmt.Fprintf(w, "\n%s %s\n", LabelStyle.Render("Total size:"), SizeStyle.Render(r.TotalSizeHuman))
	}

	if r.DaysThreshold > 0 {
		fmt.Fprintf(w, "%s older than %d days\n", LabelStyle.Render("Threshold:"), r.DaysThreshold)
	}
	if r.Warning != "" {
		fmt.Fprintf(w, "\n%s\n", WarningStyle.Bold(true).Render("WARNING: "+r.Warning))
	}
	if r.BackupLocation != "" {
		fmt.Fprintf(w, "\n%s %s\n", LabelStyle.Render("Backup will be created in:"), PathStyle.Render(r.BackupLocation))
	}

	w.WriteString(FooterBox.Render("Run with --confirm to execute this action."))
	w.WriteString("\n")
}

func (f *PrettyFormatter) executed(w *bytes.Buffer, r *executor.Result) {
	label := SuccessStyle.Bold(true).Render("[SUCCESS]")
	if r.Status == executor.StatusPartial {
		label = WarningStyle.Bold(true).Render("[PARTIAL]")
	}
	fmt.Fprintf(w, "%s %s\n", label, r.Action)
	w.WriteString(MutedStyle.Render(strings.Repeat("-", 40)))
	w.WriteString("\n")
	if r.Message != "" {
		w.WriteString(r.Message)
		w.WriteString("\n")
	}

	switch {
	case r.Action == types.ActionListBackups:
		f.backups(w, r)
	case r.Restore != nil:
		for _, p := range r.Restore.Restored {
			fmt.Fprintf(w, "  %s %s\n", SuccessStyle.Render("restored"), PathStyle.Render(p))
		}
		for _, p := range r.Restore.Skipped {
			fmt.Fprintf(w, "  %s %s\n", MutedStyle.Render("skipped"), PathStyle.Render(p))
		}
	}

	if r.SizeFreedHuman != "" && r.SizeFreed > 0 {
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Freed:"), SizeStyle.Render(r.SizeFreedHuman))
	}
	if r.Skipped > 0 {
		fmt.Fprintf(w, "%s %d already gone\n", LabelStyle.Render("Skipped:"), r.Skipped)
	}
	if r.Disabled != "" {
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Disabled:"), PathStyle.Render(r.Disabled))
	}
	if r.Backup != "" && r.Restore == nil {
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Backup:"), PathStyle.Render(r.Backup))
	}
	if r.RestoreCmd != "" {
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Restore:"), r.RestoreCmd)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\n%s\n", ErrorStyle.Bold(true).Render("Errors:"))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", ErrorStyle.Render(e))
		}
	}
}

func (f *PrettyFormatter) backups(w *bytes.Buffer, r *executor.Result) {
	if len(r.Backups) == 0 {
		return
	}
	w.WriteString("\n")
	for _, b := range r.Backups {
		latest := ""
		if b.Latest {
			latest = SuccessStyle.Render(" (latest)")
		}
		fmt.Fprintf(w, "  %s - %s (%s, %d files)%s\n",
			ValueStyle.Render(b.ID), b.Action, SizeStyle.Render(b.SizeHuman), b.Files, latest)
	}
}

// FormatHistory writes a table of stored scans.
func (f *PrettyFormatter) FormatHistory(w *bytes.Buffer, entries []history.Entry) error {
	if len(entries) == 0 {
		w.WriteString(MutedStyle.Render("No scans recorded yet. Run ccdisk scan to record one."))
		w.WriteString("\n")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFINDINGS\tTOP RISK\tSTATE FILE\tCONFIG DIR")
	for _, e := range entries {
		risk := e.TopRisk
		if risk == "" {
			risk = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Findings,
			risk,
			types.FormatSize(e.ClaudeJSON),
			types.FormatSize(e.ClaudeDirSize))
	}
	return tw.Flush()
}

// FormatComparison writes the finding and size changes followed by the
// colored unified diff.
func (f *PrettyFormatter) FormatComparison(w *bytes.Buffer, c *history.Comparison) error {
	w.WriteString(HeaderBox.Render(fmt.Sprintf("%s %s\n%s %s",
		LabelStyle.Render("From:"), ValueStyle.Render(c.From),
		LabelStyle.Render("To:  "), ValueStyle.Render(c.To))))
	w.WriteString("\n")

	if len(c.Added) == 0 && len(c.Resolved) == 0 && len(c.Sizes) == 0 {
		w.WriteString(MutedStyle.Render("No changes between scans"))
		w.WriteString("\n")
		return nil
	}

	for _, id := range c.Added {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("+ new"), id)
	}
	for _, id := range c.Resolved {
		fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("- resolved"), id)
	}

	if len(c.Sizes) > 0 {
		fmt.Fprintf(w, "\n%s\n", TitleStyle.Render("Size changes"))
		for _, d := range c.Sizes {
			fmt.Fprintf(w, "  %-24s %10s -> %-10s %s\n",
				d.Area, types.FormatSize(d.From), types.FormatSize(d.To), signedSize(d.Delta))
		}
	}

	if c.Unified != "" {
		w.WriteString("\n")
		for _, line := range strings.SplitAfter(c.Unified, "\n") {
			w.WriteString(diffLine(line))
		}
	}
	return nil
}

func signedSize(delta int64) string {
	if delta < 0 {
		return SuccessStyle.Render("-" + types.FormatSize(-delta))
	}
	return ErrorStyle.Render("+" + types.FormatSize(delta))
}

func diffLine(line string) string {
	text := strings.TrimSuffix(line, "\n")
	if text == "" {
		return line
	}
	var styled string
	switch {
	case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
		styled = TitleStyle.Render(text)
	case strings.HasPrefix(text, "@@"):
		styled = MutedStyle.Render(text)
	case strings.HasPrefix(text, "+"):
		styled = SuccessStyle.Render(text)
	case strings.HasPrefix(text, "-"):
		styled = ErrorStyle.Render(text)
	default:
		styled = text
	}
	if strings.HasSuffix(line, "\n") {
		styled += "\n"
	}
	return styled
}

// padLeft pads a string with spaces on the left to the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)

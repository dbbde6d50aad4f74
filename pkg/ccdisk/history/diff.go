package history

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"
)

// SizeDelta is the change of one metrics area between two scans.
type SizeDelta struct {
	Area  string `json:"area" yaml:"area"`
	From  int64  `json:"from" yaml:"from"`
	To    int64  `json:"to" yaml:"to"`
	Delta int64  `json:"delta" yaml:"delta"`
}

// Comparison describes how two scans differ.
type Comparison struct {
	From     string      `json:"from" yaml:"from"`
	To       string      `json:"to" yaml:"to"`
	Added    []string    `json:"added_findings" yaml:"added_findings"`
	Resolved []string    `json:"resolved_findings" yaml:"resolved_findings"`
	Sizes    []SizeDelta `json:"size_changes" yaml:"size_changes"`
	Unified  string      `json:"unified_diff" yaml:"unified_diff"`
}

// Compare reports finding and size changes from one scan to another along
// with a unified diff of their findings and metrics.
func Compare(fromID string, from *types.ScanReport, toID string, to *types.ScanReport) (*Comparison, error) {
	fromIDs := findingIDs(from)
	toIDs := findingIDs(to)

	c := &Comparison{
		From:     fromID,
		To:       toID,
		Added:    lo.Without(toIDs, fromIDs...),
		Resolved: lo.Without(fromIDs, toIDs...),
		Sizes:    sizeDeltas(&from.Metrics, &to.Metrics),
	}

	a, err := diffable(from)
	if err != nil {
		return nil, err
	}
	b, err := diffable(to)
	if err != nil {
		return nil, err
	}

	c.Unified, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromID,
		ToFile:   toID,
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("diffing reports: %w", err)
	}
	return c, nil
}

func findingIDs(r *types.ScanReport) []string {
	return lo.Map(r.Findings, func(f types.Finding, _ int) string { return f.ID })
}

func sizeDeltas(from, to *types.MetricsSnapshot) []SizeDelta {
	areas := lo.Uniq(lo.Keys(from.Sizes, to.Sizes))
	sort.Strings(areas)

	var out []SizeDelta
	for _, area := range areas {
		a, b := from.Size(area), to.Size(area)
		if a == b {
			continue
		}
		out = append(out, SizeDelta{Area: area, From: a, To: b, Delta: b - a})
	}
	return out
}

// diffable renders the parts of a report worth diffing. Timestamps and
// previews are left out so that unchanged state diffs empty.
func diffable(r *types.ScanReport) (string, error) {
	view := struct {
		Metrics  types.MetricsSnapshot `json:"metrics"`
		Findings []types.Finding       `json:"findings"`
		Actions  []types.ActionID      `json:"actions"`
	}{
		Metrics:  r.Metrics,
		Findings: r.Findings,
		Actions:  lo.Map(r.Actions, func(a types.RemediationAction, _ int) types.ActionID { return a.ID }),
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return string(data) + "\n", nil
}

package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/executor"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/history"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleReport() *types.ScanReport {
	snap := types.NewMetricsSnapshot()
	snap.Sizes[types.AreaClaudeJSON] = 6 * types.MiB
	snap.Sizes[types.AreaClaudeDir] = 40 * types.MiB

	return &types.ScanReport{
		CreatedAt: created,
		Env:       types.EnvInfo{OS: "Linux", OSVersion: "6.1.0", IsWSL: true},
		Paths:     types.PathInfo{ClaudeDir: "/home/user/.claude"},
		Metrics:   *snap,
		Findings: []types.Finding{{
			ID:                 "CLAUDE_JSON_BLOAT",
			Title:              "Primary state file is 6.0 MiB",
			Risk:               types.RiskHigh,
			Evidence:           types.SizeEvidence(6 * types.MiB),
			WhyItMatters:       "Large state files slow startup",
			RecommendedActions: []types.ActionID{types.ActionDisablePrimaryState},
			References:         []string{},
		}},
		Actions: []types.RemediationAction{{
			ID:             types.ActionDisablePrimaryState,
			Title:          "Backup & disable /home/user/.claude.json (requires re-login)",
			Safety:         types.SafetyCaution,
			Affects:        []string{"/home/user/.claude.json"},
			FixCommand:     "ccdisk disable-primary-state",
			FilePreview:    []types.FilePreview{types.NewFilePreview("/home/user/.claude.json", 6*types.MiB, 0)},
			TotalSize:      6 * types.MiB,
			TotalSizeHuman: "6.0 MiB",
		}},
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("b", func() Formatter { return &JSONFormatter{} })
	r.Register("a", func() Formatter { return &YAMLFormatter{} })

	assert.Equal(t, []string{"a", "b"}, r.Available())

	f, err := r.Get("a")
	require.NoError(t, err)
	assert.IsType(t, &YAMLFormatter{}, f)

	_, err = r.Get("missing")
	assert.ErrorContains(t, err, "unknown output format: missing")
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"json", "pretty", "yaml"}, Available())

	f, err := Get(Default)
	require.NoError(t, err)
	assert.IsType(t, &PrettyFormatter{}, f)
}

func TestEveryFormatterHandlesEveryPayload(t *testing.T) {
	t.Parallel()

	result := &executor.Result{Action: types.ActionPruneDebugLogs, Status: executor.StatusSkip, Reason: "nothing to do"}
	entries := []history.Entry{{ID: "20250601T120000.000000000Z", CreatedAt: created, Findings: 1, TopRisk: "high"}}
	comparison := &history.Comparison{From: "a", To: "b", Added: []string{"X"}}

	for _, name := range Available() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, err := Get(name)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, f.FormatReport(&buf, &Report{ScanReport: sampleReport()}))
			require.NoError(t, f.FormatResult(&buf, result))
			require.NoError(t, f.FormatHistory(&buf, entries))
			require.NoError(t, f.FormatHistory(&buf, nil))
			require.NoError(t, f.FormatComparison(&buf, comparison))
			assert.NotEmpty(t, buf.String())
		})
	}
}

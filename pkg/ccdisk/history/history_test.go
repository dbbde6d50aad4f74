package history

import (
	"testing"
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func report(at time.Time, jsonSize int64, findings ...string) *types.ScanReport {
	snap := types.NewMetricsSnapshot()
	snap.Sizes[types.AreaClaudeJSON] = jsonSize
	snap.Sizes[types.AreaClaudeDir] = 1000

	r := &types.ScanReport{
		CreatedAt: at,
		Metrics:   *snap,
		Findings:  []types.Finding{},
		Actions:   []types.RemediationAction{},
	}
	for _, id := range findings {
		r.Findings = append(r.Findings, types.Finding{ID: id, Risk: types.RiskHigh})
	}
	return r
}

func TestSaveGetList(t *testing.T) {
	t.Parallel()

	s := openStore(t)

	id1, err := s.Save(report(base, 10, "A"))
	require.NoError(t, err)
	id2, err := s.Save(report(base.Add(time.Hour), 20, "A", "B"))
	require.NoError(t, err)
	assert.Less(t, id1, id2)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id2, list[0].ID)
	assert.Equal(t, 2, list[0].Findings)
	assert.Equal(t, "high", list[0].TopRisk)
	assert.Equal(t, int64(20), list[0].ClaudeJSON)
	assert.Equal(t, id1, list[1].ID)

	got, err := s.Get(id1)
	require.NoError(t, err)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.Equal(t, int64(10), got.Metrics.Size(types.AreaClaudeJSON))

	latest, err := s.Get(Latest)
	require.NoError(t, err)
	assert.Len(t, latest.Findings, 2)

	previous, err := s.Get(Previous)
	require.NoError(t, err)
	assert.Len(t, previous.Findings, 1)
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	_, err := s.Get("20200101T000000.000000000Z")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(Latest)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get("")
	assert.Error(t, err)
}

func TestListEmpty(t *testing.T) {
	t.Parallel()

	list, err := openStore(t, InMemory()).List()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestPrune(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	for _, age := range []int{100, 50, 1} {
		_, err := s.Save(report(base.AddDate(0, 0, -age), 1))
		require.NoError(t, err)
	}

	n, err := s.Prune(90, base)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err = s.Prune(0, base)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSecondOpenFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = Open(dir)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	t.Parallel()

	from := report(base, 10, "A", "B")
	to := report(base.Add(time.Hour), 25, "B", "C")

	c, err := Compare("one", from, "two", to)
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, c.Added)
	assert.Equal(t, []string{"A"}, c.Resolved)
	assert.Equal(t, []SizeDelta{{Area: types.AreaClaudeJSON, From: 10, To: 25, Delta: 15}}, c.Sizes)
	assert.Contains(t, c.Unified, "--- one")
	assert.Contains(t, c.Unified, "+++ two")
	assert.Contains(t, c.Unified, `+      "id": "C",`)
}

func TestCompareIdentical(t *testing.T) {
	t.Parallel()

	c, err := Compare("a", report(base, 1, "X"), "b", report(base.Add(time.Minute), 1, "X"))
	require.NoError(t, err)
	assert.Empty(t, c.Added)
	assert.Empty(t, c.Resolved)
	assert.Empty(t, c.Sizes)
	assert.Empty(t, c.Unified)
}

// Package scan runs one read-only diagnosis of the state directory:
// metrics, detectors, ranking and action generation, assembled into a
// ScanReport.
package scan

import (
	"time"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/actions"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/detect"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/metrics"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/targets"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Scanner produces scan reports for a layout.
type Scanner struct {
	layout    *paths.Layout
	detectors []detect.Detector
	now       func() time.Time
	env       *types.EnvInfo
	actions   actions.Options
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClock sets the time source for report timestamps and file ages.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// WithDetectors replaces the default detector set.
func WithDetectors(d []detect.Detector) Option {
	return func(s *Scanner) { s.detectors = d }
}

// WithEnv fixes the environment instead of detecting it.
func WithEnv(env types.EnvInfo) Option {
	return func(s *Scanner) { s.env = &env }
}

// WithThresholds sets the day thresholds shown in action previews.
func WithThresholds(sessionDays, debugDays, retentionDays int) Option {
	return func(s *Scanner) {
		s.actions.SessionDays = sessionDays
		s.actions.DebugDays = debugDays
		s.actions.RetentionDays = retentionDays
	}
}

// New returns a Scanner with the default detectors and thresholds.
func New(layout *paths.Layout, opts ...Option) *Scanner {
	s := &Scanner{
		layout:    layout,
		detectors: detect.Default(),
		now:       time.Now,
		actions:   actions.Options{SessionDays: 30, DebugDays: 14, RetentionDays: 14},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan collects metrics, evaluates detectors and generates actions. It
// never modifies the filesystem.
func (s *Scanner) Scan() *types.ScanReport {
	logger := logging.Get("scan")
	start := s.now()

	env := DetectEnv(s.layout)
	if s.env != nil {
		env = *s.env
	}

	snapshot := metrics.Collect(s.layout)
	logger.Debug("metrics collected",
		"claude_dir", snapshot.Size(types.AreaClaudeDir),
		"files", snapshot.Count(types.CountClaudeDirFiles),
		"walk_errors", snapshot.Count(types.CountWalkErrors))

	findings := detect.Run(s.detectors, &detect.Input{
		Snapshot: snapshot,
		Layout:   s.layout,
		Env:      env,
	})

	opts := s.actions
	opts.Finder = targets.New(s.layout, targets.WithClock(s.now))
	acts := actions.Generate(findings, s.layout, opts)

	logger.Info("scan complete", "findings", len(findings), "actions", len(acts))

	return &types.ScanReport{
		CreatedAt: start,
		Env:       env,
		Paths:     s.layout.Info(),
		Metrics:   *snapshot,
		Findings:  findings,
		Actions:   acts,
	}
}

// Package detect turns a metrics snapshot into ranked findings. Each
// Detector independently decides whether one named condition holds; a
// detector that panics is treated as having found nothing.
package detect

import (
	"fmt"
	"sort"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/logging"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Input is everything a detector may look at.
type Input struct {
	Snapshot *types.MetricsSnapshot
	Layout   *paths.Layout
	Env      types.EnvInfo
}

// Detector evaluates one condition. Evaluate returns nil when the condition
// does not hold. Implementations must not modify the filesystem.
type Detector interface {
	ID() string
	Evaluate(in *Input) *types.Finding
}

// Default returns the built-in detectors in evaluation order.
func Default() []Detector {
	return []Detector{
		ClaudeJSONBloat{},
		PluginCacheRegression{},
		GroveTimeout{},
		WSLPowerShell{},
		ProjectsBloat{},
		OversizedMemory{},
		OrphanedProjects{},
		OldPluginVersions{},
		CacheDirs{},
	}
}

// Run evaluates every detector and returns the findings ranked by risk.
func Run(detectors []Detector, in *Input) []types.Finding {
	logger := logging.Get("detect")

	findings := make([]types.Finding, 0, len(detectors))
	for _, d := range detectors {
		f, err := evaluate(d, in)
		if err != nil {
			logger.Error("detector failed", "detector", d.ID(), "error", err)
			continue
		}
		if f == nil {
			logger.Debug("no finding", "detector", d.ID())
			continue
		}
		logger.Debug("finding", "detector", d.ID(), "risk", f.Risk)
		findings = append(findings, *f)
	}

	Rank(findings)
	return findings
}

func evaluate(d Detector, in *Input) (f *types.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Evaluate(in), nil
}

// Rank sorts findings critical first. Findings of equal risk keep their
// relative order.
func Rank(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Risk.Rank() < findings[j].Risk.Rank()
	})
}

func finding(id, title string, risk types.Risk, why string, actions []types.ActionID, refs []string, evidence ...types.Evidence) *types.Finding {
	if refs == nil {
		refs = []string{}
	}
	return &types.Finding{
		ID:                 id,
		Title:              title,
		Risk:               risk,
		Evidence:           evidence,
		WhyItMatters:       why,
		RecommendedActions: actions,
		References:         refs,
	}
}

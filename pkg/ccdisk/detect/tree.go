package detect

import (
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/targets"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

const orphanedHigh = types.GiB

// OrphanedProjects flags project session dirs whose working directory is
// gone. Project names that contained hyphens decode to the wrong path and
// are reported too.
type OrphanedProjects struct{}

func (OrphanedProjects) ID() string { return "ORPHANED_PROJECTS" }

func (d OrphanedProjects) Evaluate(in *Input) *types.Finding {
	projects, err := targets.New(in.Layout).Projects()
	if err != nil {
		return nil
	}

	var (
		names []string
		total int64
	)
	for _, p := range projects {
		if p.Orphaned {
			names = append(names, p.Name)
			total += p.Size
		}
	}
	if len(names) == 0 {
		return nil
	}

	risk := types.RiskMedium
	if total > orphanedHigh {
		risk = types.RiskHigh
	}

	evidence := append([]types.Evidence{types.IntEvidence("count", int64(len(names)))}, types.SizeEvidence(total)...)
	evidence = append(evidence, types.ListEvidence("dirs", names))

	return finding(d.ID(),
		fmt.Sprintf("Orphaned projects: %d dirs, %s", len(names), types.FormatSize(total)),
		risk,
		"Project data for paths that no longer exist wastes disk space",
		[]types.ActionID{types.ActionRemoveOrphanedProjects},
		nil,
		evidence...,
	)
}

const oldVersionsHigh = 5 * types.GiB

// OldPluginVersions flags superseded plugin versions kept in the cache.
type OldPluginVersions struct{}

func (OldPluginVersions) ID() string { return "OLD_PLUGIN_VERSIONS" }

func (d OldPluginVersions) Evaluate(in *Input) *types.Finding {
	old, err := targets.New(in.Layout).OldPluginVersions()
	if err != nil || len(old) == 0 {
		return nil
	}

	versions := make([]string, 0, len(old))
	for _, p := range old {
		versions = append(versions, filepath.Base(filepath.Dir(p.Path))+"@"+filepath.Base(p.Path))
	}
	total := types.TotalSize(old)

	risk := types.RiskMedium
	if total > oldVersionsHigh {
		risk = types.RiskHigh
	}

	evidence := append([]types.Evidence{types.IntEvidence("count", int64(len(old)))}, types.SizeEvidence(total)...)
	evidence = append(evidence, types.ListEvidence("versions", versions))

	return finding(d.ID(),
		fmt.Sprintf("Old plugin versions: %d versions, %s", len(old), types.FormatSize(total)),
		risk,
		"Old plugin versions accumulate and waste disk space",
		[]types.ActionID{types.ActionPruneOldPluginVersions},
		nil,
		evidence...,
	)
}

package detect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// Primary state file thresholds. Sizes equal to a threshold do not cross it.
const (
	claudeJSONMedium   = 5 * types.MiB
	claudeJSONHigh     = 20 * types.MiB
	claudeJSONCritical = 100 * types.MiB

	// historyCountLimit bounds the file size parsed for history_entries.
	historyCountLimit = 2 * claudeJSONCritical
)

// historyKeys are the top-level arrays counted as history entries.
var historyKeys = []string{"history", "conversations", "messages", "chats"}

// ClaudeJSONBloat flags an oversized primary state file.
type ClaudeJSONBloat struct{}

func (ClaudeJSONBloat) ID() string { return "CLAUDE_JSON_BLOAT" }

func (d ClaudeJSONBloat) Evaluate(in *Input) *types.Finding {
	size := in.Snapshot.Size(types.AreaClaudeJSON)

	var risk types.Risk
	switch {
	case size > claudeJSONCritical:
		risk = types.RiskCritical
	case size > claudeJSONHigh:
		risk = types.RiskHigh
	case size > claudeJSONMedium:
		risk = types.RiskMedium
	default:
		return nil
	}

	evidence := types.SizeEvidence(size)
	if size <= historyCountLimit {
		if n := countHistoryEntries(in.Layout.ClaudeJSON); n > 0 {
			evidence = append(evidence, types.IntEvidence("history_entries", n))
		}
	}

	return finding(d.ID(),
		fmt.Sprintf("%s = %s (likely history accumulation)", in.Layout.ClaudeJSON, types.FormatSize(size)),
		risk,
		"Large .claude.json causes slow startup and poor performance",
		[]types.ActionID{types.ActionDisablePrimaryState},
		[]string{"#5024", "#5653", "#1449", "#6394"},
		evidence...,
	)
}

// countHistoryEntries counts elements of the known history arrays. Any read
// or parse failure counts as zero.
func countHistoryEntries(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0
	}

	var n int64
	for _, key := range historyKeys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			n += int64(len(items))
		}
	}
	return n
}

const pluginCacheHigh = 50 * types.MiB

// PluginCacheRegression flags any populated plugin cache.
type PluginCacheRegression struct{}

func (PluginCacheRegression) ID() string { return "PLUGIN_CACHE_REGRESSION" }

func (d PluginCacheRegression) Evaluate(in *Input) *types.Finding {
	count := in.Snapshot.Count(types.CountPluginCacheFiles)
	if count == 0 {
		return nil
	}
	size := in.Snapshot.Size(types.AreaPluginCache)

	risk := types.RiskMedium
	if size > pluginCacheHigh {
		risk = types.RiskHigh
	}

	return finding(d.ID(),
		fmt.Sprintf("%s = %s, %d files", in.Layout.PluginCache, types.FormatSize(size), count),
		risk,
		"Plugin cache can cause inverted performance (slower with cache than without)",
		[]types.ActionID{types.ActionClearPluginCache},
		[]string{"#15090"},
		append(types.SizeEvidence(size), types.IntEvidence("file_count", count))...,
	)
}

const (
	projectsMedium = 500 * types.MiB
	projectsHigh   = types.GiB
)

// ProjectsBloat flags a large session store.
type ProjectsBloat struct{}

func (ProjectsBloat) ID() string { return "PROJECTS_BLOAT" }

func (d ProjectsBloat) Evaluate(in *Input) *types.Finding {
	size := in.Snapshot.Size(types.AreaProjects)
	if size < projectsMedium {
		return nil
	}
	count := in.Snapshot.Count(types.CountProjectFiles)

	risk := types.RiskMedium
	if size > projectsHigh {
		risk = types.RiskHigh
	}

	return finding(d.ID(),
		fmt.Sprintf("%s = %s across %d files", in.Layout.ProjectsDir, types.FormatSize(size), count),
		risk,
		"Large session files may contribute to extension OOM or performance degradation",
		[]types.ActionID{types.ActionSetRetentionPeriod, types.ActionPruneOldSessions},
		[]string{"#8722"},
		append(types.SizeEvidence(size), types.IntEvidence("file_count", count))...,
	)
}

const memoryFileLimit = 100 * types.KiB

// OversizedMemory flags a large CLAUDE.md.
type OversizedMemory struct{}

func (OversizedMemory) ID() string { return "OVERSIZED_MEMORY" }

func (d OversizedMemory) Evaluate(in *Input) *types.Finding {
	size := in.Snapshot.Size(types.AreaClaudeMD)
	if size < memoryFileLimit {
		return nil
	}

	return finding(d.ID(),
		fmt.Sprintf("%s = %s", in.Layout.ClaudeMD, types.FormatSize(size)),
		types.RiskLow,
		"Large memory files increase context loading work at session start",
		[]types.ActionID{types.ActionTrimMemoryFiles},
		nil,
		types.SizeEvidence(size)...,
	)
}

const cacheDirsMinimum = types.MiB

// CacheDirs reports regenerable cache directories worth clearing.
type CacheDirs struct{}

func (CacheDirs) ID() string { return "CACHE_DIRS" }

func (d CacheDirs) Evaluate(in *Input) *types.Finding {
	var (
		names []string
		total int64
	)
	for _, name := range paths.MiscCacheDirs {
		if size := in.Snapshot.Size(types.AreaCachePrefix + name); size > 0 {
			names = append(names, name)
			total += size
		}
	}
	if len(names) == 0 || total < cacheDirsMinimum {
		return nil
	}

	evidence := append([]types.Evidence{types.IntEvidence("count", int64(len(names)))}, types.SizeEvidence(total)...)
	evidence = append(evidence, types.ListEvidence("dirs", names))

	return finding(d.ID(),
		fmt.Sprintf("Cache directories: %d dirs, %s", len(names), types.FormatSize(total)),
		types.RiskInfo,
		"Cache directories can be safely cleaned to free disk space",
		[]types.ActionID{types.ActionClearMiscCaches, types.ActionPruneDebugLogs},
		nil,
		evidence...,
	)
}

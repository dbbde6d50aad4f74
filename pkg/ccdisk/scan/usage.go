package scan

import (
	"sort"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/metrics"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/targets"
)

// PluginUsage is the cached size of one plugin across marketplaces.
type PluginUsage struct {
	Name     string `json:"name" yaml:"name"`
	Size     int64  `json:"size" yaml:"size"`
	Versions int    `json:"versions" yaml:"versions"`
}

// Usage breaks the state directory down into plugin cache, projects and
// everything else.
type Usage struct {
	Total int64 `json:"total" yaml:"total"`

	PluginCache int64         `json:"plugin_cache" yaml:"plugin_cache"`
	Plugins     []PluginUsage `json:"plugins" yaml:"plugins"` // largest first

	Projects         int64 `json:"projects" yaml:"projects"`
	ActiveProjects   int   `json:"active_projects" yaml:"active_projects"`
	ActiveSize       int64 `json:"active_size" yaml:"active_size"`
	OrphanedProjects int   `json:"orphaned_projects" yaml:"orphaned_projects"`
	OrphanedSize     int64 `json:"orphaned_size" yaml:"orphaned_size"`

	Other int64 `json:"other" yaml:"other"`
}

// Usage measures the disk usage breakdown. Unreadable entries are left out.
func (s *Scanner) Usage() *Usage {
	f := targets.New(s.layout, targets.WithClock(s.now))
	u := &Usage{Total: metrics.DirSize(s.layout.ClaudeDir)}

	groups, _ := f.Plugins()
	byName := make(map[string]*PluginUsage)
	for _, g := range groups {
		p, ok := byName[g.Name]
		if !ok {
			p = &PluginUsage{Name: g.Name}
			byName[g.Name] = p
		}
		p.Size += g.Size
		p.Versions += len(g.Versions)
		u.PluginCache += g.Size
	}
	for _, p := range byName {
		u.Plugins = append(u.Plugins, *p)
	}
	sort.Slice(u.Plugins, func(i, j int) bool {
		if u.Plugins[i].Size != u.Plugins[j].Size {
			return u.Plugins[i].Size > u.Plugins[j].Size
		}
		return u.Plugins[i].Name < u.Plugins[j].Name
	})

	projects, _ := f.Projects()
	for _, p := range projects {
		if p.Orphaned {
			u.OrphanedProjects++
			u.OrphanedSize += p.Size
		} else {
			u.ActiveProjects++
			u.ActiveSize += p.Size
		}
	}
	u.Projects = u.ActiveSize + u.OrphanedSize

	u.Other = max(u.Total-u.PluginCache-u.Projects, 0)
	return u
}

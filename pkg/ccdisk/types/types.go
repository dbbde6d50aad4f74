// Package types provides the core data types shared by the ccdisk pipeline:
// metrics snapshots, findings, remediation actions and scan reports, along
// with size helpers and the error taxonomy.
package types

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// secondsPerDay is used for whole-day age calculations.
const secondsPerDay = 86400

// FormatSize converts a size in bytes to a human-readable string
// using binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// AgeDays returns the number of whole days between modTime and now.
// Future modification times are reported as zero days old.
func AgeDays(modTime, now time.Time) int {
	age := now.Sub(modTime)
	if age < 0 {
		return 0
	}
	return int(age / (secondsPerDay * time.Second))
}

// MetricsSnapshot holds the aggregates produced by one metrics pass.
// Sizes are in bytes; counts are entry counts for areas where the number
// of files matters.
type MetricsSnapshot struct {
	Sizes  map[string]int64 `json:"sizes" yaml:"sizes"`
	Counts map[string]int64 `json:"counts" yaml:"counts"`
}

// NewMetricsSnapshot returns a snapshot with initialized maps.
func NewMetricsSnapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		Sizes:  make(map[string]int64),
		Counts: make(map[string]int64),
	}
}

// Size returns the recorded size for area, or zero.
func (m *MetricsSnapshot) Size(area string) int64 {
	if m == nil {
		return 0
	}
	return m.Sizes[area]
}

// Count returns the recorded count for area, or zero.
func (m *MetricsSnapshot) Count(area string) int64 {
	if m == nil {
		return 0
	}
	return m.Counts[area]
}

// Metric area names.
const (
	AreaClaudeJSON   = "claude_json"
	AreaClaudeDir    = "claude_dir"
	AreaPluginCache  = "plugin_cache"
	AreaProjects     = "projects"
	AreaDebug        = "debug"
	AreaClaudeMD     = "claude_md"
	AreaSettingsJSON = "settings_json"

	// AreaCachePrefix prefixes the per-directory misc cache sizes,
	// e.g. "cache/shell-snapshots".
	AreaCachePrefix = "cache/"

	CountPluginCacheFiles = "plugin_cache_files"
	CountProjectFiles     = "project_files"
	CountDebugFiles       = "debug_files"
	CountClaudeDirFiles   = "claude_dir_files"
	CountSymlinks         = "symlinks"
	CountWalkErrors       = "walk_errors"
)

// EnvInfo describes the environment a scan ran in.
type EnvInfo struct {
	OS        string `json:"os" yaml:"os"`
	OSVersion string `json:"os_version" yaml:"os_version"`
	IsWSL     bool   `json:"is_wsl" yaml:"is_wsl"`
	ConfigDir string `json:"config_dir" yaml:"config_dir"`
	HomeDir   string `json:"home_dir" yaml:"home_dir"`
}

// PathInfo lists the resolved paths a scan looked at.
type PathInfo struct {
	ClaudeDir       string   `json:"claude_dir" yaml:"claude_dir"`
	ClaudeJSON      string   `json:"claude_json" yaml:"claude_json"`
	SettingsJSON    string   `json:"settings_json" yaml:"settings_json"`
	DebugDir        string   `json:"debug_dir" yaml:"debug_dir"`
	PluginCacheDirs []string `json:"plugin_cache_dirs" yaml:"plugin_cache_dirs"`
	ProjectsDir     string   `json:"projects_dir" yaml:"projects_dir"`
	BackupRoot      string   `json:"backup_root" yaml:"backup_root"`
}

// ScanReport is the complete output of a read-only scan.
type ScanReport struct {
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	Env       EnvInfo             `json:"env" yaml:"env"`
	Paths     PathInfo            `json:"paths" yaml:"paths"`
	Metrics   MetricsSnapshot     `json:"metrics" yaml:"metrics"`
	Findings  []Finding           `json:"findings" yaml:"findings"`
	Actions   []RemediationAction `json:"actions" yaml:"actions"`
}

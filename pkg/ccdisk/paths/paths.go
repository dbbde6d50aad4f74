// Package paths resolves the on-disk layout ccdisk inspects: the state
// directory (~/.claude or $CLAUDE_CONFIG_DIR), the primary state file
// (~/.claude.json) and the backup store root.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// EnvConfigDir redirects the state directory root when set.
const EnvConfigDir = "CLAUDE_CONFIG_DIR"

// MiscCacheDirs are the regenerable directories under the state directory,
// in the order they are reported.
var MiscCacheDirs = []string{"debug", "shell-snapshots", "paste-cache", "todos", "session-env"}

// Layout is a fully resolved set of paths. The zero value is not useful;
// build one with Resolve.
type Layout struct {
	Home         string
	ClaudeDir    string
	ClaudeJSON   string
	SettingsJSON string
	ClaudeMD     string
	DebugDir     string
	DebugLatest  string
	ProjectsDir  string
	PluginsDir   string
	PluginCache  string
	BackupRoot   string
}

// Options overrides the defaults Resolve would otherwise derive from the
// home directory. Empty fields keep the default.
type Options struct {
	Home       string
	ConfigDir  string
	StateFile  string
	BackupRoot string
}

// Resolve builds a Layout. The state directory is chosen in order from
// $CLAUDE_CONFIG_DIR, opts.ConfigDir and ~/.claude.
func Resolve(opts Options) (*Layout, error) {
	home := opts.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		home = h
	}

	claudeDir := filepath.Join(home, ".claude")
	if opts.ConfigDir != "" {
		claudeDir = expandHome(opts.ConfigDir, home)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		claudeDir = expandHome(env, home)
	}

	stateFile := filepath.Join(home, ".claude.json")
	if opts.StateFile != "" {
		stateFile = expandHome(opts.StateFile, home)
	}

	backupRoot := filepath.Join(home, ".claude-backups")
	if opts.BackupRoot != "" {
		backupRoot = expandHome(opts.BackupRoot, home)
	}

	return FromRoot(home, claudeDir, stateFile, backupRoot), nil
}

// FromRoot builds a Layout around an explicit state directory.
func FromRoot(home, claudeDir, stateFile, backupRoot string) *Layout {
	claudeDir = filepath.Clean(claudeDir)
	debugDir := filepath.Join(claudeDir, "debug")
	pluginsDir := filepath.Join(claudeDir, "plugins")

	return &Layout{
		Home:         home,
		ClaudeDir:    claudeDir,
		ClaudeJSON:   filepath.Clean(stateFile),
		SettingsJSON: filepath.Join(claudeDir, "settings.json"),
		ClaudeMD:     filepath.Join(claudeDir, "CLAUDE.md"),
		DebugDir:     debugDir,
		DebugLatest:  filepath.Join(debugDir, "latest"),
		ProjectsDir:  filepath.Join(claudeDir, "projects"),
		PluginsDir:   pluginsDir,
		PluginCache:  filepath.Join(pluginsDir, "cache"),
		BackupRoot:   filepath.Clean(backupRoot),
	}
}

// MiscCache returns the path of the named misc cache directory.
func (l *Layout) MiscCache(name string) string {
	return filepath.Join(l.ClaudeDir, name)
}

// Info converts the layout to the report's path section. Plugin cache dirs
// are listed only when present.
func (l *Layout) Info() types.PathInfo {
	info := types.PathInfo{
		ClaudeDir:       l.ClaudeDir,
		ClaudeJSON:      l.ClaudeJSON,
		SettingsJSON:    l.SettingsJSON,
		DebugDir:        l.DebugDir,
		PluginCacheDirs: []string{},
		ProjectsDir:     l.ProjectsDir,
		BackupRoot:      l.BackupRoot,
	}
	if IsDir(l.PluginCache) {
		info.PluginCacheDirs = append(info.PluginCacheDirs, l.PluginCache)
	}
	return info
}

// IsDir reports whether path exists and is a directory, following symlinks.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether path exists. Any error other than not-exist counts
// as existing so callers surface the real error later.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// DecodeProjectDir reconstructs the working directory a projects child was
// named after: "-Users-me-repo" becomes "/Users/me/repo". The encoding maps
// both "/" and "-" to "-", so directories whose names contain hyphens decode
// to the wrong path and are reported as orphaned.
func DecodeProjectDir(name string) string {
	return "/" + strings.ReplaceAll(strings.TrimLeft(name, "-"), "-", "/")
}

// EncodeProjectDir is the forward mapping of DecodeProjectDir.
func EncodeProjectDir(dir string) string {
	return strings.ReplaceAll(filepath.ToSlash(filepath.Clean(dir)), "/", "-")
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default values.
const (
	DefaultBackupDirName        = ".claude-backups"
	DefaultSessionDays          = 30
	DefaultDebugDays            = 14
	DefaultRetentionDays        = 14
	DefaultHistoryRetentionDays = 90
	DefaultLogMaxSize           = "5MiB"
)

const template = `# ccdisk configuration

# State directory to inspect. Empty means ~/.claude.
# CLAUDE_CONFIG_DIR overrides this value.
config_dir: ""

# Primary state file. Empty means ~/.claude.json.
state_file: ""

backup:
  # Root directory for backup transactions
  root: %s

# Scan history kept for "ccdisk history"
history:
  enabled: true
  path: %s
  # Stored reports older than this are dropped; 0 keeps everything
  retention_days: %d

# Default --days for the prune actions
prune:
  session_days: %d
  debug_days: %d

# Default --days for set-retention-period
retention:
  days: %d

logging:
  # Log level: debug, info, warn, error
  level: info
  # Empty means $XDG_STATE_HOME/ccdisk/ccdisk.log
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 3
`

// DefaultYAML renders the commented default configuration file.
func DefaultYAML(homeDir string) string {
	return fmt.Sprintf(template,
		filepath.Join(homeDir, DefaultBackupDirName),
		DefaultHistoryPath(),
		DefaultHistoryRetentionDays,
		DefaultSessionDays,
		DefaultDebugDays,
		DefaultRetentionDays,
		DefaultLogMaxSize,
	)
}

// WriteDefault writes the default config file into Dir() unless one already
// exists. It returns the file path and whether it was written.
func WriteDefault() (string, bool, error) {
	dir, err := Dir()
	if err != nil {
		return "", false, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(DefaultYAML(homeDir)), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}

	return path, true, nil
}

// Package config loads ccdisk settings from a YAML file and CCDISK_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CCDISK_BACKUP_ROOT.
const EnvPrefix = "CCDISK"

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level    string         `mapstructure:"level" yaml:"level"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// HistoryConfig configures the scan history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// Config is the effective ccdisk configuration.
type Config struct {
	// ConfigDir overrides ~/.claude. CLAUDE_CONFIG_DIR still wins.
	ConfigDir string `mapstructure:"config_dir" yaml:"config_dir"`

	// StateFile overrides ~/.claude.json.
	StateFile string `mapstructure:"state_file" yaml:"state_file"`

	Backup struct {
		Root string `mapstructure:"root" yaml:"root"`
	} `mapstructure:"backup" yaml:"backup"`

	History HistoryConfig `mapstructure:"history" yaml:"history"`

	Prune struct {
		SessionDays int `mapstructure:"session_days" yaml:"session_days"`
		DebugDays   int `mapstructure:"debug_days" yaml:"debug_days"`
	} `mapstructure:"prune" yaml:"prune"`

	Retention struct {
		Days int `mapstructure:"days" yaml:"days"`
	} `mapstructure:"retention" yaml:"retention"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Load reads configuration. When file is empty the default locations are
// searched and a missing file is not an error; an explicit file must exist.
//
// Search order:
//   - $XDG_CONFIG_HOME/ccdisk/config.yaml
//   - $HOME/.config/ccdisk/config.yaml
func Load(file string) (*Config, error) {
	v := viper.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "ccdisk"))
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "ccdisk"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, homeDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ConfigDir = expand(cfg.ConfigDir, homeDir)
	cfg.StateFile = expand(cfg.StateFile, homeDir)
	cfg.Backup.Root = expand(cfg.Backup.Root, homeDir)
	cfg.History.Path = expand(cfg.History.Path, homeDir)
	cfg.Logging.Path = expand(cfg.Logging.Path, homeDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault("config_dir", "")
	v.SetDefault("state_file", "")
	v.SetDefault("backup.root", filepath.Join(homeDir, DefaultBackupDirName))
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("history.retention_days", DefaultHistoryRetentionDays)
	v.SetDefault("prune.session_days", DefaultSessionDays)
	v.SetDefault("prune.debug_days", DefaultDebugDays)
	v.SetDefault("retention.days", DefaultRetentionDays)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 3)
}

// Validate checks day thresholds and the rotation size.
func (c *Config) Validate() error {
	checks := []struct {
		key string
		val int
	}{
		{"prune.session_days", c.Prune.SessionDays},
		{"prune.debug_days", c.Prune.DebugDays},
		{"retention.days", c.Retention.Days},
	}
	for _, chk := range checks {
		if chk.val < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalid, chk.key, chk.val)
		}
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("%w: history.retention_days must not be negative", ErrInvalid)
	}
	if _, err := c.LogMaxBytes(); err != nil {
		return err
	}
	return nil
}

// LogMaxBytes parses logging.rotation.max_size. Empty means zero, which the
// log writer treats as its default.
func (c *Config) LogMaxBytes() (int64, error) {
	s := strings.TrimSpace(c.Logging.Rotation.MaxSize)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: logging.rotation.max_size %q: %v", ErrInvalid, s, err)
	}
	return int64(n), nil
}

// Dir returns the directory config files are read from and written to.
func Dir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "ccdisk"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ccdisk"), nil
}

// DataDir returns $XDG_DATA_HOME/ccdisk.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "ccdisk")
}

// DefaultHistoryPath returns the badger directory for scan history.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

func expand(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/config"
	"github.com/jamesainslie/ccdisk/pkg/ccdisk/paths"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage ccdisk configuration settings.

Configuration is loaded from:
  1. --config, when given
  2. $XDG_CONFIG_HOME/ccdisk/config.yaml (if set)
  3. ~/.config/ccdisk/config.yaml

Environment variables override config file settings using the CCDISK_ prefix:
  CCDISK_BACKUP_ROOT=/mnt/backups
  CCDISK_PRUNE_SESSION_DAYS=60
  CCDISK_HISTORY_ENABLED=false

CLAUDE_CONFIG_DIR overrides config_dir.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  a.runConfigShow,
		},
		&cobra.Command{
			Use:         "init",
			Short:       "Create a default configuration file",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{skipSetup: ""},
			RunE:        runConfigInit,
		},
		&cobra.Command{
			Use:         "path",
			Short:       "Show the configuration file path",
			Args:        cobra.NoArgs,
			Annotations: map[string]string{skipSetup: ""},
			RunE:        runConfigPath,
		},
	)
	return cmd
}

func (a *app) runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	data, err := yaml.Marshal(a.cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	fmt.Fprintln(out, "# Effective configuration")
	fmt.Fprintf(out, "# state directory: %s\n", a.layout.ClaudeDir)
	fmt.Fprintf(out, "# state file:      %s\n", a.layout.ClaudeJSON)
	out.Write(data)

	var overrides []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") || strings.HasPrefix(kv, paths.EnvConfigDir+"=") {
			overrides = append(overrides, kv)
		}
	}
	sort.Strings(overrides)

	fmt.Fprintln(out, "\n# Environment overrides")
	if len(overrides) == 0 {
		fmt.Fprintln(out, "# (none)")
	}
	for _, kv := range overrides {
		fmt.Fprintf(out, "# %s\n", kv)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, written, err := config.WriteDefault()
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists: %s\n", path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created default config file: %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, "config.yaml"))
	return nil
}

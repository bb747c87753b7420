// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aimednow/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Show or change configuration. Keys use dot notation, for example
api.base_url or ui.theme. Environment variables (AIMEDNOW_API_BASE_URL and
friends) override the file at load time.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration (secrets redacted)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := a.cfg.Get(args[0])
				if err != nil {
					return usageError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatConfigValue(value))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one value in the config file",
			Example: `  aimednow config set api.base_url https://aimednow.example.org
  aimednow config set server.allowed_origins "http://localhost:3000,*.example.org"`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.writablePath()
				if err != nil {
					return err
				}
				if err := setConfigValue(path, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.writablePath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every configuration key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetAllKeys(), "\n"))
				return nil
			},
		},
	)
	return cmd
}

// writablePath is --config when given, else the default TOML file.
func (a *App) writablePath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.ConfigPathTOML()
}

// setConfigValue edits the file at path only, so environment overrides
// active in this process are not written back.
func setConfigValue(path, key, value string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" && ext != ".toml" {
		return usageError(fmt.Errorf("config set writes TOML; %s is not a .toml file", path))
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return &CommandError{Code: ExitConfigError, Err: err}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg.SetDefaults()

	if err := cfg.Set(key, value); err != nil {
		return usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return &CommandError{Code: ExitConfigError, Err: err}
	}
	return config.SaveTOML(cfg, path)
}

func formatConfigValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ",")
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

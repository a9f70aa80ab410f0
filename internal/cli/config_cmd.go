// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/syna-omnibox/internal/config"
)

const redacted = "[REDACTED]"

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file that set writes to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			_, path, err := readConfigFile(flags)
			if err != nil {
				return err
			}
			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), "config path", map[string]string{"path": path}, nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, flags and environment applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), "config show", json.RawMessage(cfg.String()), nil)
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective value, e.g. config get ui.omnibox_mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			value, err := configValue(cfg, args[0])
			if err != nil {
				return &CommandError{Op: "config get", Err: err, Code: ExitUsageError}
			}
			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), "config get", map[string]any{"key": args[0], "value": value}, nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and save one value to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			cfg, path, err := readConfigFile(flags)
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if err := cfg.Set(key, value); err != nil {
				return &CommandError{Op: "config set", Err: err, Code: ExitUsageError}
			}
			if err := cfg.Validate(); err != nil {
				return &CommandError{Op: "config set", Err: err, Code: ExitConfigError}
			}
			if err := config.Save(cfg, path); err != nil {
				return &CommandError{Op: "config set", Err: err, Code: ExitConfigError}
			}

			shown, _ := configValue(cfg, key)
			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), "config set", map[string]any{"key": key, "value": shown, "path": path}, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %v %s\n",
				successStyle.Render("[OK]"), key, shown, dimStyle.Render("("+path+")"))
			return nil
		},
	})

	return cmd
}

// readConfigFile loads the stored file without env or flag overrides, so
// set writes back only the edited key.
func readConfigFile(flags *rootFlags) (*config.Config, string, error) {
	dir := flags.configDir
	if dir == "" {
		d, err := config.ConfigDir()
		if err != nil {
			return nil, "", &CommandError{Op: "config", Err: err, Code: ExitConfigError}
		}
		dir = d
	}
	cfg, path, err := config.ReadDir(dir)
	if err != nil {
		return nil, "", &CommandError{Op: "read config", Err: err, Code: ExitConfigError}
	}
	return cfg, path, nil
}

// configValue looks up key, hiding the API token.
func configValue(cfg *config.Config, key string) (any, error) {
	value, err := cfg.Get(key)
	if err != nil {
		return nil, err
	}
	if key == "api.token" {
		if s, _ := value.(string); s != "" {
			return redacted, nil
		}
	}
	return value, nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, titleStyle.Render("Configuration"))
	for _, key := range config.GetAllKeys() {
		value, err := configValue(cfg, key)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "%-32s %v\n", key, value)
	}
}

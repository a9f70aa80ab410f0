// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/syna-omnibox/internal/config"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Flags shared by every command.
type rootFlags struct {
	configDir string
	offline   bool
	manifest  string
	format    string
	apiURL    string
}

// NewRootCmd builds the command tree. Without a subcommand the TUI runs
// when stdin and stdout are terminals and the line REPL otherwise.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "syna-omnibox",
		Short:         "Prefix-driven command palette and composer for Syna",
		Long:          "Type a trigger (/ // > ? ! # ^ @) to run commands, search, jump to workspaces and documents, or mention people and agents.",
		Version:       fmt.Sprintf("%s (%s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return runTUI(cmd.Context(), flags)
			}
			return runREPL(cmd.Context(), flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "Configuration directory (default ~/.syna)")
	pf.BoolVar(&flags.offline, "offline", false, "Run without the backend; built-in catalog only")
	pf.StringVar(&flags.manifest, "manifest", "", "Load the command manifest from a JSON or YAML file")
	pf.StringVarP(&flags.format, "format", "f", "text", "Output format: text or json")
	pf.StringVar(&flags.apiURL, "api-url", "", "Backend base URL")

	root.AddCommand(
		newREPLCmd(flags),
		newRouteCmd(flags),
		newCommandsCmd(flags),
		newCompleteCmd(flags),
		newTelemetryCmd(flags),
		newStateCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		return ExitCodeFor(err)
	}
	return ExitSuccess
}

// loadConfig reads configuration and applies flag overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configDir != "" {
		cfg, err = config.LoadDir(flags.configDir)
	} else {
		cfg, err = config.Load()
	}
	if cfg == nil {
		return nil, &CommandError{Op: "load config", Err: err, Code: ExitConfigError}
	}
	if err != nil {
		// A broken file falls back to defaults; say so once
		fmt.Fprintln(os.Stderr, warningStyle.Render("Warning:"), err)
	}

	if flags.offline {
		cfg.API.Offline = true
	}
	if flags.manifest != "" {
		cfg.Registry.ManifestFile = flags.manifest
	}
	if flags.apiURL != "" {
		cfg.API.BaseURL = flags.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, &CommandError{Op: "validate config", Err: err, Code: ExitConfigError}
	}
	return cfg, nil
}

// openApp loads config and wires the components. Logs go to logs when set.
func openApp(ctx context.Context, flags *rootFlags, logs io.Writer) (*App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, AppOptions{LogWriter: logs})
}

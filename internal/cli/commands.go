// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/storage"
	"github.com/jeranaias/syna-omnibox/internal/telemetry"
	"github.com/jeranaias/syna-omnibox/internal/util"
)

// withApp loads the app for a one-shot command and closes it afterwards.
// Component logs are discarded so they do not mix with command output.
func withApp(ctx context.Context, flags *rootFlags, fn func(*App) error) error {
	app, err := openApp(ctx, flags, io.Discard)
	if err != nil {
		return err
	}
	runErr := fn(app)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = &CommandError{Op: "shutdown", Err: err}
	}
	return runErr
}

// =============================================================================
// ROUTE
// =============================================================================

func newRouteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "route <input>...",
		Short: "Route one omnibox line, e.g. route '#home' or route /switch design",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			input := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			return withApp(cmd.Context(), flags, func(app *App) error {
				ec := app.ExecutionContext(cmd.Context())
				result := app.Router.Execute(cmd.Context(), input, ec)
				app.Remember(cmd.Context(), input, result)

				if jsonMode {
					if err := NewJSONResponse("route", routeOutput{Input: input, Result: result}).Write(out); err != nil {
						return err
					}
				} else {
					printResult(out, result)
				}
				if !result.Success {
					return &RouteError{Input: input, Result: result}
				}
				return nil
			})
		},
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func newCommandsCmd(flags *rootFlags) *cobra.Command {
	var trigger string

	cmd := &cobra.Command{
		Use:   "commands [query]",
		Short: "List catalog commands matching query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			out := cmd.OutOrStdout()

			return withApp(cmd.Context(), flags, func(app *App) error {
				manifest := app.Registry.GetManifest(cmd.Context())
				found := manifest.Search(query, trigger)
				if jsonMode {
					return writeJSON(out, "commands", map[string]any{
						"version":  manifest.Version,
						"commands": found,
					}, nil)
				}
				printCommands(out, manifest.Version, found)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&trigger, "prefix", "p", "", "Only commands under this trigger, e.g. / or >")
	return cmd
}

func printCommands(out io.Writer, version string, found []commands.Command) {
	fmt.Fprintln(out, titleStyle.Render("Commands (manifest "+version+")"))
	if len(found) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No matching commands"))
		return
	}

	width := 0
	for _, c := range found {
		width = max(width, len(c.Usage()))
	}
	w, _ := terminalSize(out)
	room := w - width - 2
	for _, c := range found {
		desc := c.Description
		if len(c.Aliases) > 0 {
			desc += " (aliases: " + strings.Join(c.Aliases, ", ") + ")"
		}
		if room > 10 {
			desc = util.TruncateWidth(desc, room)
		}
		fmt.Fprintf(out, "%-*s  %s\n", width, c.Usage(), dimStyle.Render(desc))
	}
}

// =============================================================================
// COMPLETE
// =============================================================================

func newCompleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <partial>",
		Short: "Show omnibox suggestions for a partial line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			return withApp(cmd.Context(), flags, func(app *App) error {
				items := app.Completer.Complete(cmd.Context(), args[0])
				if jsonMode {
					return writeJSON(out, "complete", items, nil)
				}
				for _, line := range completionLines(items) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

// =============================================================================
// TELEMETRY
// =============================================================================

// telemetryReport is the telemetry command's output.
type telemetryReport struct {
	Source  string            `json:"source"`
	Summary telemetry.Summary `json:"summary"`
	Recent  []telemetry.Entry `json:"recent"`
}

func newTelemetryCmd(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Summarize recorded command telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, err := outputFormat(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			return withApp(cmd.Context(), flags, func(app *App) error {
				if app.Store == nil {
					return &CommandError{Op: "telemetry", Err: fmt.Errorf("storage is unavailable"), Code: ExitConfigError}
				}
				entries, err := app.Store.RecentTelemetry(cmd.Context(), limit)
				if err != nil {
					return &CommandError{Op: "read telemetry", Err: err}
				}
				report := telemetryReport{
					Source:  "storage",
					Summary: telemetry.Summarize(entries, 10),
					Recent:  entries,
				}
				if jsonMode {
					return writeJSON(out, "telemetry", report, nil)
				}
				printTelemetry(out, report)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 200, "Number of most recent entries to read")
	return cmd
}

func printTelemetry(out io.Writer, r telemetryReport) {
	s := r.Summary
	fmt.Fprintln(out, titleStyle.Render("Command telemetry"))
	fmt.Fprintln(out, renderLabel("Entries")+fmt.Sprintf("%d", s.Total))
	if s.Total == 0 {
		return
	}
	fmt.Fprintln(out, renderLabel("Success rate")+fmt.Sprintf("%.1f%%", s.SuccessRate()*100))
	fmt.Fprintln(out, renderLabel("Avg duration")+s.AvgDuration.Round(time.Microsecond).String())
	fmt.Fprintln(out, renderLabel("Max duration")+s.MaxDuration.Round(time.Microsecond).String())

	fmt.Fprintln(out, sectionStyle.Render("By mode"))
	modes := make([]string, 0, len(s.ByMode))
	for m := range s.ByMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		fmt.Fprintln(out, renderLabel("  "+m)+fmt.Sprintf("%d", s.ByMode[m]))
	}

	fmt.Fprintln(out, sectionStyle.Render("Top commands"))
	for _, c := range s.TopCommands {
		fmt.Fprintln(out, renderLabel("  "+c.CommandID)+fmt.Sprintf("%d", c.Count))
	}
}

// =============================================================================
// STATE
// =============================================================================

func newStateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the persisted UI state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(cmd, flags, func(app *App) (storage.UIState, error) {
				return app.Store.LoadState(cmd.Context())
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <preference> <value>",
		Short: "Save a UI preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(cmd, flags, func(app *App) (storage.UIState, error) {
				return app.Store.SetPreference(cmd.Context(), args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default UI state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(cmd, flags, func(app *App) (storage.UIState, error) {
				state := storage.DefaultUIState()
				return state, app.Store.SaveState(cmd.Context(), state)
			})
		},
	})
	return cmd
}

func runState(cmd *cobra.Command, flags *rootFlags, fn func(*App) (storage.UIState, error)) error {
	jsonMode, err := outputFormat(flags)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	return withApp(cmd.Context(), flags, func(app *App) error {
		if app.Store == nil {
			return &CommandError{Op: "state", Err: fmt.Errorf("storage is unavailable"), Code: ExitConfigError}
		}
		state, err := fn(app)
		if err != nil {
			return &CommandError{Op: "state", Err: err}
		}
		if jsonMode {
			return writeJSON(out, "state", state, nil)
		}
		printState(out, state)
		return nil
	})
}

func printState(out io.Writer, s storage.UIState) {
	fmt.Fprintln(out, titleStyle.Render("UI state"))
	fmt.Fprintln(out, renderLabel("Last panel")+orNone(s.LastPanel))
	fmt.Fprintln(out, renderLabel("Last workspace")+orNone(s.LastWorkspaceID))
	fmt.Fprintln(out, renderLabel("Last document")+orNone(s.LastDocumentID))

	fmt.Fprintln(out, sectionStyle.Render("Preferences"))
	keys := make([]string, 0, len(s.Preferences))
	for k := range s.Preferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintln(out, renderLabel("  "+k)+s.Preferences[k])
	}

	fmt.Fprintln(out, sectionStyle.Render("Recent commands"))
	for _, c := range s.RecentCommands {
		fmt.Fprintln(out, "  "+c)
	}
}

func orNone(s string) string {
	if s == "" {
		return dimStyle.Render("(none)")
	}
	return s
}

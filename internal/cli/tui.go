// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/router"
	"github.com/jeranaias/syna-omnibox/internal/ui/composer"
	"github.com/jeranaias/syna-omnibox/internal/ui/omnibox"
	"github.com/jeranaias/syna-omnibox/internal/ui/styles"
)

// omniboxModePref is the UI state preference that overrides ui.omnibox_mode.
const omniboxModePref = "omnibox_mode"

// runTUI starts the full-screen composer with the command palette.
func runTUI(ctx context.Context, flags *rootFlags) error {
	// The TUI owns the terminal; component logs go to the log file
	var logs io.Writer = io.Discard
	logFile, logErr := openLogFile()
	if logErr == nil {
		logs = logFile
	}

	app, err := openApp(ctx, flags, logs)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return err
	}
	if logFile != nil {
		app.logFile = logFile
	}
	defer app.Close()

	model := buildTUI(ctx, app)
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// buildTUI wires the palette and the composer to the app.
func buildTUI(ctx context.Context, app *App) *composer.Model {
	theme := styles.NewTheme(app.Config.UI.Theme)
	ec := app.ExecutionContext(ctx)

	display := omnibox.ParseDisplayMode(app.Config.UI.OmniboxMode)
	if app.Store != nil {
		if state, err := app.Store.LoadState(ctx); err == nil {
			if pref := state.Preferences[omniboxModePref]; pref != "" {
				display = omnibox.ParseDisplayMode(pref)
			}
		}
	}

	var palette *omnibox.Model
	palette = omnibox.New(app.Router, app.Completer,
		omnibox.WithTheme(theme),
		omnibox.WithContext(ctx),
		omnibox.WithDisplayMode(display),
		omnibox.WithDebounce(app.Config.Composer.Debounce()),
		omnibox.WithOnExecuted(func(input string, result router.Result) {
			app.Remember(ctx, input, result)
			palette.SetExecutionContext(followResult(palette.ExecutionContext(), result))
		}),
	)
	palette.SetExecutionContext(ec)

	mentions := mention.NewComposer(
		mention.WithBacklinks(app.Backlinks(), ec.UserID),
		mention.WithLogger(app.Logger),
	)

	model := composer.New(mentions, app.Searcher(), palette,
		composer.WithTheme(theme),
		composer.WithContext(ctx),
		composer.WithDebounce(app.Config.Composer.Debounce()),
		composer.WithLogger(app.Logger),
		composer.WithOnSubmit(func(msg composer.Message) {
			app.Logger.Printf("MESSAGE_SUBMITTED | chars=%d pills=%d", len(msg.Text), len(msg.Pills))
		}),
	)
	model.SetSize(terminalSize(os.Stdout))
	return model
}

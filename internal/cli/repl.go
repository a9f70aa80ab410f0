// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/config"
	"github.com/jeranaias/syna-omnibox/internal/router"
)

const replPrompt = "syna> "

func newREPLCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line-based omnibox with history and tab completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one input line per prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close()
}

// historyReader is the interactive reader: liner line editing with history
// persisted to ~/.syna/repl_history and catalog tab completion.
type historyReader struct {
	line        *liner.State
	historyFile string
}

func newHistoryReader(completer func(string) []string) *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	r := &historyReader{
		line:        line,
		historyFile: filepath.Join(configDir, "repl_history"),
	}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *historyReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *historyReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// scanReader reads piped input. The prompt is not echoed.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() {}

// =============================================================================
// REPL LOOP
// =============================================================================

func runREPL(ctx context.Context, flags *rootFlags, in io.Reader, out io.Writer) error {
	jsonMode, err := outputFormat(flags)
	if err != nil {
		return err
	}

	// Keep component logs off the prompt
	logs, logErr := openLogFile()
	var app *App
	if logErr == nil {
		app, err = openApp(ctx, flags, logs)
		if app != nil {
			app.logFile = logs
		} else {
			logs.Close()
		}
	} else {
		app, err = openApp(ctx, flags, io.Discard)
	}
	if err != nil {
		return err
	}
	defer app.Close()

	var reader lineReader
	if interactive(in, out) {
		reader = newHistoryReader(app.Completer.LineCompleter(ctx))
	} else {
		reader = &scanReader{scanner: bufio.NewScanner(in)}
	}
	defer reader.Close()

	return replLoop(ctx, app, reader, out, jsonMode)
}

// replLoop routes each line until EOF, "exit" or "quit".
func replLoop(ctx context.Context, app *App, reader lineReader, out io.Writer, jsonMode bool) error {
	ec := app.ExecutionContext(ctx)

	if !jsonMode {
		fmt.Fprintln(out, dimStyle.Render("Type ? for help, exit to quit."))
	}

	for {
		input, err := reader.ReadLine(promptStyle.Render(replPrompt))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result := app.Router.Execute(ctx, input, ec)
		app.Remember(ctx, input, result)
		ec = followResult(ec, result)

		if jsonMode {
			if err := NewJSONResponse("route", routeOutput{Input: input, Result: result}).Write(out); err != nil {
				return err
			}
			continue
		}
		printResult(out, result)
	}
}

// =============================================================================
// RESULT OUTPUT
// =============================================================================

// routeOutput is the JSON shape of one routed line.
type routeOutput struct {
	Input  string        `json:"input"`
	Result router.Result `json:"result"`
}

// printResult renders a routed result for humans.
func printResult(out io.Writer, result router.Result) {
	if !result.Success {
		fmt.Fprintf(out, "%s %s %s\n",
			errorStyle.Render("[FAIL]"),
			result.Error,
			dimStyle.Render("("+string(result.Code)+")"))
		return
	}

	header := string(result.Action)
	if result.Target != "" {
		header += " " + result.Target
	}
	fmt.Fprintf(out, "%s %s\n", successStyle.Render("[OK]"), header)

	switch data := result.Data.(type) {
	case nil:
	case string:
		fmt.Fprintln(out, data)
	case json.RawMessage:
		fmt.Fprintln(out, indentJSON(data))
	default:
		if b, err := json.MarshalIndent(data, "", "  "); err == nil {
			fmt.Fprintln(out, string(b))
		}
	}
}

func indentJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// completionLines formats completions as aligned "value  description" rows.
func completionLines(items []commands.Completion) []string {
	width := 0
	for _, c := range items {
		width = max(width, len(c.Value))
	}
	lines := make([]string, 0, len(items))
	for _, c := range items {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, c.Value, dimStyle.Render(c.Description)))
	}
	return lines
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/jeranaias/syna-omnibox/internal/prefix"
)

// =============================================================================
// COMPLETION
// =============================================================================

// Completion is a single completion candidate.
type Completion struct {
	// Value is the full input line with the completion applied
	Value string

	// Display is what the user sees in a list (e.g., "/ws -> /workspace")
	Display string

	Description string
	Score       int
	Command     Command
}

// Completer completes command names for line-oriented input.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a completer over registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the prefix token at the end of input.
// Name and alias prefix matches rank above description matches.
func (c *Completer) Complete(ctx context.Context, input string) []Completion {
	p, ok := prefix.Parse(input, len(input))
	if !ok || !prefix.ShouldOpenOmnibox(p.Mode) {
		return nil
	}

	partial := normalize(p.Query)
	head := input[:p.Start]

	var completions []Completion
	for _, cmd := range c.registry.SearchCommands(ctx, "", p.Trigger) {
		value := head + cmd.Invocation() + " "

		if strings.HasPrefix(normalize(cmd.Name), partial) {
			completions = append(completions, Completion{
				Value:       value,
				Display:     cmd.Invocation(),
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
				Command:     cmd,
			})
			continue
		}

		matched := false
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(normalize(alias), partial) {
				completions = append(completions, Completion{
					Value:       value,
					Display:     cmd.Prefix + alias + " -> " + cmd.Invocation(),
					Description: cmd.Description,
					Score:       calculateScore(alias, partial) - 10,
					Command:     cmd,
				})
				matched = true
				break
			}
		}

		if matched || partial == "" {
			continue
		}

		if matches(cmd, partial) {
			completions = append(completions, Completion{
				Value:       value,
				Display:     cmd.Invocation(),
				Description: cmd.Description,
				Score:       10,
				Command:     cmd,
			})
			continue
		}

		// Typos like "/swtch" still find the command, below every other match
		if score, ok := fuzzyMatch(partial, normalize(cmd.Name)); ok {
			completions = append(completions, Completion{
				Value:       value,
				Display:     cmd.Invocation(),
				Description: cmd.Description,
				Score:       min(score, 9),
				Command:     cmd,
			})
		}
	}

	sortCompletions(completions)
	return completions
}

// LineCompleter adapts Complete to the line editor's completer signature.
func (c *Completer) LineCompleter(ctx context.Context) func(string) []string {
	return func(line string) []string {
		completions := c.Complete(ctx, line)
		values := make([]string, 0, len(completions))
		for _, comp := range completions {
			values = append(values, comp.Value)
		}
		return values
	}
}

// calculateScore calculates a relevance score for a completion.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100

	// Exact match
	if value == partial {
		return score + 100
	}

	// Prefix match bonus
	if strings.HasPrefix(value, partial) {
		score += 50
		// Bonus for shorter completions
		score += 20 - len(value)
	}

	// Length penalty
	score -= len(value) / 2

	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Display < completions[j].Display
	})
}

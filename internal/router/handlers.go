// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/syna-omnibox/internal/backend"
	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/prefix"
)

// RecentDocumentsLimit is how many documents ^recent asks for.
const RecentDocumentsLimit = 10

// ============================================================================
// COMMAND MODE (/)
// ============================================================================

func (r *Router) handleCommand(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	name, rest := commands.SplitFirst(p.Query)
	if name == "" {
		return failure(CodeInvalidInput, "Type a command name after /"), nil
	}

	cmd, ok := r.resolve(ctx, name, "/")
	if !ok {
		return failure(CodeUnknownCommand, "Unknown command: /%s", name), nil
	}
	if res, denied := r.checkAccess(cmd, ec); denied {
		return res, nil
	}

	switch cmd.ID {
	case commands.IDWorkspaceCreate:
		return r.createWorkspace(ctx, strings.Join(commands.SplitArgs(rest), " "), ec)
	case commands.IDWorkspaceSwitch:
		return r.switchWorkspace(ctx, strings.Join(commands.SplitArgs(rest), " "), ec)
	case commands.IDBranch:
		return r.branchThread(ctx, rest, ec)
	default:
		return r.executeGeneric(ctx, cmd, commands.SplitArgs(rest), ec)
	}
}

// resolve finds the command for name under trigger. An exact name or alias
// match wins; otherwise the first search hit in catalog order is used.
func (r *Router) resolve(ctx context.Context, name, trigger string) (commands.Command, bool) {
	matches := r.registry.SearchCommands(ctx, name, trigger)
	if len(matches) == 0 {
		return commands.Command{}, false
	}
	lower := strings.ToLower(name)
	for _, cmd := range matches {
		if strings.ToLower(cmd.Name) == lower {
			return cmd, true
		}
		for _, alias := range cmd.Aliases {
			if strings.ToLower(alias) == lower {
				return cmd, true
			}
		}
	}
	return matches[0], true
}

// checkAccess returns a failure when ec may not run cmd.
func (r *Router) checkAccess(cmd commands.Command, ec ExecutionContext) (Result, bool) {
	if r.registry.CanExecuteCommand(cmd, ec.UserID) {
		return Result{}, false
	}
	if cmd.RequiresAuth && ec.UserID == "" {
		return failure(CodeAuthRequired, "Sign in to use %s", cmd.Invocation()), true
	}
	return failure(CodePermissionDenied, "You don't have permission to use %s", cmd.Invocation()), true
}

func (r *Router) createWorkspace(ctx context.Context, name string, ec ExecutionContext) (Result, error) {
	if name == "" {
		return failure(CodeInvalidInput, "Workspace name is required"), nil
	}
	if r.services.Workspaces == nil {
		return notAvailable("Creating workspaces"), nil
	}
	ws, err := r.services.Workspaces.CreateWorkspace(ctx, name, ec.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("create workspace %q: %w", name, err)
	}
	return success(ws, ActionNavigate, "/workspace/"+ws.ID), nil
}

func (r *Router) switchWorkspace(ctx context.Context, name string, ec ExecutionContext) (Result, error) {
	if name == "" {
		return failure(CodeInvalidInput, "Workspace name is required"), nil
	}
	if r.services.Workspaces == nil {
		return notAvailable("Switching workspaces"), nil
	}
	ws, err := r.services.Workspaces.SwitchWorkspace(ctx, name, ec.UserID)
	if backend.IsStatus(err, http.StatusNotFound) {
		return failure(CodeInvalidInput, "Workspace not found: %s", name), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("switch workspace %q: %w", name, err)
	}
	return success(ws, ActionNavigate, "/workspace/"+ws.ID), nil
}

// branchThread needs the current thread id in Metadata["threadId"];
// Metadata["messageId"] optionally pins the branch point.
func (r *Router) branchThread(ctx context.Context, title string, ec ExecutionContext) (Result, error) {
	threadID := ec.metaString("threadId")
	if threadID == "" {
		return failure(CodeInvalidInput, "Open a thread before branching"), nil
	}
	if r.services.Threads == nil {
		return notAvailable("Branching threads"), nil
	}
	b, err := r.services.Threads.BranchThread(ctx, threadID, ec.metaString("messageId"), title)
	if err != nil {
		return Result{}, fmt.Errorf("branch thread %s: %w", threadID, err)
	}
	return success(b, ActionNavigate, "/thread/"+b.NewThreadID), nil
}

func (r *Router) executeGeneric(ctx context.Context, cmd commands.Command, args []string, ec ExecutionContext) (Result, error) {
	if r.services.Commands == nil {
		return notAvailable(cmd.Invocation()), nil
	}
	data, err := r.services.Commands.ExecuteCommand(ctx, backend.ExecuteRequest{
		CommandID: cmd.ID,
		Args:      args,
		Context:   ec.asMap(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("execute %s: %w", cmd.ID, err)
	}
	return success(data, ActionExecute, cmd.ID), nil
}

// ============================================================================
// SEARCH MODE (//)
// ============================================================================

func (r *Router) handleSearch(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return failure(CodeInvalidInput, "Type something to search for"), nil
	}
	if r.services.Search == nil {
		return notAvailable("Search"), nil
	}

	results, err := r.services.Search.Search(ctx, backend.SearchRequest{
		Query:       query,
		WorkspaceID: ec.WorkspaceID,
		UserID:      ec.UserID,
	})
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		r.logger.Printf("SEARCH_FAILED | status=%d", statusErr.Status)
		return failure(CodeBackend, "Search failed"), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return success(results, ActionOpen, "search"), nil
}

// ============================================================================
// POWER MODE (>)
// ============================================================================

func (r *Router) handlePower(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	if ec.UserID == "" {
		return failure(CodeAuthRequired, "Authentication required for power commands"), nil
	}

	name, rest := commands.SplitFirst(p.Query)
	cmd, ok := commands.Command{}, false
	if name != "" {
		cmd, ok = r.resolve(ctx, name, ">")
	}
	if !ok {
		return failure(CodeNotImplemented, "Raw command execution is not yet implemented"), nil
	}
	if res, denied := r.checkAccess(cmd, ec); denied {
		return res, nil
	}

	switch cmd.ID {
	case commands.IDSQL:
		return failure(CodeNotImplemented, "SQL execution is not yet implemented"), nil
	case commands.IDScript:
		return failure(CodeNotImplemented, "Script execution is not yet implemented"), nil
	default:
		return r.executeGeneric(ctx, cmd, commands.SplitArgs(rest), ec)
	}
}

// ============================================================================
// HELP MODE (?)
// ============================================================================

func (r *Router) handleHelp(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	topic := strings.ToLower(strings.TrimSpace(p.Query))
	if topic == "" || topic == "help" {
		return success(HelpText(), ActionOpen, "help"), nil
	}
	return success(r.topicHelp(ctx, topic), ActionOpen, "help/"+topic), nil
}

// ============================================================================
// QUICK MODE (!)
// ============================================================================

func (r *Router) handleQuick(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	action, content := commands.SplitFirst(p.Query)

	switch strings.ToLower(action) {
	case "note":
		if content == "" {
			return failure(CodeInvalidInput, "Note content is required"), nil
		}
		return success(map[string]string{"type": "note", "content": content}, ActionExecute, "note"), nil
	case "task":
		if content == "" {
			return failure(CodeInvalidInput, "Task title is required"), nil
		}
		return success(map[string]string{"type": "task", "title": content}, ActionExecute, "task"), nil
	case "":
		return failure(CodeInvalidInput, "Choose a quick action: !note or !task"), nil
	default:
		return failure(CodeUnknownCommand, "Unknown quick action: !%s", action), nil
	}
}

// ============================================================================
// WORKSPACE MODE (#)
// ============================================================================

func (r *Router) handleWorkspace(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	target := strings.TrimSpace(p.Query)

	switch strings.ToLower(target) {
	case "home":
		return success(nil, ActionNavigate, "/"), nil
	case "settings":
		return success(nil, ActionNavigate, "/settings"), nil
	default:
		return r.switchWorkspace(ctx, target, ec)
	}
}

// ============================================================================
// DOCUMENT MODE (^)
// ============================================================================

func (r *Router) handleDocument(ctx context.Context, p prefix.Parsed, ec ExecutionContext) (Result, error) {
	first, rest := commands.SplitFirst(p.Query)

	switch strings.ToLower(first) {
	case "":
		return failure(CodeInvalidInput, "Document id is required"), nil
	case "open":
		if rest == "" {
			return failure(CodeInvalidInput, "Document id is required"), nil
		}
		return r.openDocument(ctx, rest)
	case "recent":
		if r.services.Documents == nil {
			return notAvailable("Recent documents"), nil
		}
		docs, err := r.services.Documents.RecentDocuments(ctx, ec.UserID, RecentDocumentsLimit)
		if err != nil {
			return Result{}, fmt.Errorf("recent documents: %w", err)
		}
		return success(docs, ActionOpen, "documents/recent"), nil
	default:
		return r.openDocument(ctx, strings.TrimSpace(p.Query))
	}
}

func (r *Router) openDocument(ctx context.Context, id string) (Result, error) {
	if r.services.Documents == nil {
		return notAvailable("Opening documents"), nil
	}
	doc, err := r.services.Documents.GetDocument(ctx, id)
	if backend.IsStatus(err, http.StatusNotFound) {
		return failure(CodeInvalidInput, "Document not found: %s", id), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("open document %s: %w", id, err)
	}
	return success(doc, ActionOpen, "/document/"+doc.ID), nil
}

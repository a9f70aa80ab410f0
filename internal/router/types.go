// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/syna-omnibox/internal/backend"
)

// ============================================================================
// RESULT TYPES
// ============================================================================

// Action tells the UI what to do with a successful result.
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionInsert   Action = "insert"
	ActionReplace  Action = "replace"
	ActionOpen     Action = "open"
	ActionExecute  Action = "execute"
)

// Code classifies a failed result.
type Code string

const (
	CodeUnknownCommand   Code = "unknown_command"
	CodePermissionDenied Code = "permission_denied"
	CodeAuthRequired     Code = "auth_required"
	CodeInvalidInput     Code = "invalid_input"
	CodeNotImplemented   Code = "not_implemented"
	CodeBackend          Code = "backend"
)

// Sentinel errors matching each failure Code.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotImplemented   = errors.New("not implemented")
	ErrBackend          = errors.New("backend failure")
)

var codeErrors = map[Code]error{
	CodeUnknownCommand:   ErrUnknownCommand,
	CodePermissionDenied: ErrPermissionDenied,
	CodeAuthRequired:     ErrAuthRequired,
	CodeInvalidInput:     ErrInvalidInput,
	CodeNotImplemented:   ErrNotImplemented,
	CodeBackend:          ErrBackend,
}

// ExecutionContext is the caller-owned input for one routed command.
// The router only reads it.
type ExecutionContext struct {
	UserID      string
	WorkspaceID string
	DocumentID  string
	Selection   string
	Metadata    map[string]any
}

// metaString returns Metadata[key] when it is a non-empty string.
func (ec ExecutionContext) metaString(key string) string {
	if ec.Metadata == nil {
		return ""
	}
	s, _ := ec.Metadata[key].(string)
	return s
}

// asMap renders the context for the generic execution endpoint.
func (ec ExecutionContext) asMap() map[string]any {
	m := map[string]any{}
	if ec.UserID != "" {
		m["userId"] = ec.UserID
	}
	if ec.WorkspaceID != "" {
		m["workspaceId"] = ec.WorkspaceID
	}
	if ec.DocumentID != "" {
		m["documentId"] = ec.DocumentID
	}
	if ec.Selection != "" {
		m["selection"] = ec.Selection
	}
	if len(ec.Metadata) > 0 {
		m["metadata"] = ec.Metadata
	}
	return m
}

// Result is the outcome of routing. On success Data, Action and Target are
// meaningful; on failure Error and Code are.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Action  Action `json:"action,omitempty"`
	Target  string `json:"target,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    Code   `json:"code,omitempty"`
}

// Err returns nil for a success, otherwise an error wrapping the sentinel
// for the result's Code.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if sentinel, ok := codeErrors[r.Code]; ok {
		return fmt.Errorf("%w: %s", sentinel, r.Error)
	}
	return errors.New(r.Error)
}

func success(data any, action Action, target string) Result {
	return Result{Success: true, Data: data, Action: action, Target: target}
}

func failure(code Code, format string, args ...any) Result {
	return Result{Success: false, Code: code, Error: fmt.Sprintf(format, args...)}
}

// ============================================================================
// SERVICES
// ============================================================================

// SearchService runs full-text searches.
type SearchService interface {
	Search(ctx context.Context, req backend.SearchRequest) (json.RawMessage, error)
}

// CommandService runs catalog commands that have no dedicated handler.
type CommandService interface {
	ExecuteCommand(ctx context.Context, req backend.ExecuteRequest) (json.RawMessage, error)
}

// WorkspaceService creates and switches workspaces.
type WorkspaceService interface {
	CreateWorkspace(ctx context.Context, name, userID string) (*backend.Workspace, error)
	SwitchWorkspace(ctx context.Context, workspace, userID string) (*backend.Workspace, error)
}

// DocumentService opens and lists documents.
type DocumentService interface {
	GetDocument(ctx context.Context, id string) (*backend.Document, error)
	RecentDocuments(ctx context.Context, userID string, limit int) ([]backend.Document, error)
}

// ThreadService branches conversation threads.
type ThreadService interface {
	BranchThread(ctx context.Context, threadID, messageID, title string) (*backend.Branch, error)
}

// Services bundles the router's collaborators. A nil service makes the
// commands that need it fail with CodeNotImplemented.
type Services struct {
	Search     SearchService
	Commands   CommandService
	Workspaces WorkspaceService
	Documents  DocumentService
	Threads    ThreadService
}

// ServicesFrom wires every service to one backend client.
func ServicesFrom(c *backend.Client) Services {
	return Services{
		Search:     c,
		Commands:   c,
		Workspaces: c,
		Documents:  c,
		Threads:    c,
	}
}

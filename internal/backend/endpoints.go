// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jeranaias/syna-omnibox/internal/commands"
	"github.com/jeranaias/syna-omnibox/internal/mention"
	"github.com/jeranaias/syna-omnibox/internal/telemetry"
)

// ErrMissingID is returned when a path identifier is empty.
var ErrMissingID = errors.New("missing id")

// =============================================================================
// COMMANDS & SEARCH
// =============================================================================

// FetchManifest loads the command manifest. Implements commands.ManifestSource.
func (c *Client) FetchManifest(ctx context.Context) (*commands.Manifest, error) {
	var m commands.Manifest
	if err := c.do(ctx, http.MethodGet, "/commands/manifest", nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query       string `json:"query"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// Search runs a full-text search. The result payload is passed through.
func (c *Client) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/search", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExecuteRequest is the body of POST /commands/execute.
type ExecuteRequest struct {
	CommandID string         `json:"commandId"`
	Args      []string       `json:"args"`
	Context   map[string]any `json:"context"`
}

// ExecuteCommand runs a catalog command on the backend.
func (c *Client) ExecuteCommand(ctx context.Context, req ExecuteRequest) (json.RawMessage, error) {
	if req.Args == nil {
		req.Args = []string{}
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/commands/execute", nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// WORKSPACES
// =============================================================================

// Workspace is a workspace summary.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// CreateWorkspace creates a workspace owned by userID.
func (c *Client) CreateWorkspace(ctx context.Context, name, userID string) (*Workspace, error) {
	in := map[string]string{"name": name, "userId": userID}
	var ws Workspace
	if err := c.do(ctx, http.MethodPost, "/workspaces", nil, in, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// SwitchWorkspace resolves a workspace by name or id and makes it active.
func (c *Client) SwitchWorkspace(ctx context.Context, workspace, userID string) (*Workspace, error) {
	in := map[string]string{"workspace": workspace, "userId": userID}
	var ws Workspace
	if err := c.do(ctx, http.MethodPost, "/workspaces/switch", nil, in, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// Document is a document summary.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	WorkspaceID string    `json:"workspaceId,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GetDocument fetches a document by id.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// RecentDocuments lists the user's recently opened documents.
func (c *Client) RecentDocuments(ctx context.Context, userID string, limit int) ([]Document, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var docs []Document
	if err := c.do(ctx, http.MethodGet, "/documents/recent", q, nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// =============================================================================
// THREADS
// =============================================================================

// Branch is the result of branching a thread.
type Branch struct {
	NewThreadID    string `json:"new_thread_id"`
	ParentThreadID string `json:"parent_thread_id"`
	BranchPoint    string `json:"branch_point,omitempty"`
}

// BranchThread creates a new thread from threadID, optionally at messageID.
func (c *Client) BranchThread(ctx context.Context, threadID, messageID, title string) (*Branch, error) {
	if threadID == "" {
		return nil, ErrMissingID
	}
	q := url.Values{}
	if messageID != "" {
		q.Set("message_id", messageID)
	}
	var in any
	if title != "" {
		in = map[string]string{"title": title}
	}
	var b Branch
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/branch", q, in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// =============================================================================
// MENTIONS
// =============================================================================

type mentionSearchRequest struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

// SearchMentions returns candidates for query, optionally filtered by type.
// Implements mention.Searcher.
func (c *Client) SearchMentions(ctx context.Context, query string, filter mention.EntityType) ([]mention.Candidate, error) {
	var out struct {
		Results []mention.Candidate `json:"results"`
	}
	in := mentionSearchRequest{Query: query, Type: string(filter)}
	if err := c.do(ctx, http.MethodPost, "/mentions/search", nil, in, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		return []mention.Candidate{}, nil
	}
	return out.Results, nil
}

type backlinkRequest struct {
	UserID     string             `json:"userId"`
	EntityID   string             `json:"entityId"`
	EntityType mention.EntityType `json:"entityType"`
	Name       string             `json:"name"`
}

// CreateBacklink records that userID mentioned pill. Implements mention.Backlinker.
func (c *Client) CreateBacklink(ctx context.Context, userID string, pill mention.Pill) error {
	in := backlinkRequest{
		UserID:     userID,
		EntityID:   pill.ID,
		EntityType: pill.Type,
		Name:       pill.Name,
	}
	return c.do(ctx, http.MethodPost, "/mentions/backlinks", nil, in, nil)
}

// =============================================================================
// TELEMETRY
// =============================================================================

type telemetryRequest struct {
	ID         string    `json:"id"`
	CommandID  string    `json:"commandId"`
	Prefix     string    `json:"prefix"`
	Query      string    `json:"query"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// SendTelemetry posts one entry. Implements telemetry.Sink.
func (c *Client) SendTelemetry(ctx context.Context, e telemetry.Entry) error {
	in := telemetryRequest{
		ID:         e.ID,
		CommandID:  e.CommandID,
		Prefix:     e.Prefix,
		Query:      e.Query,
		Timestamp:  e.Timestamp,
		DurationMS: e.Duration.Milliseconds(),
		Success:    e.Success,
		Error:      e.Error,
	}
	return c.do(ctx, http.MethodPost, "/telemetry/commands", nil, in, nil)
}

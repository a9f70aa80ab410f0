// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mention

import (
	"context"
	"strings"
)

// =============================================================================
// ENTITY TYPES
// =============================================================================

// EntityType is the kind of entity a mention refers to.
type EntityType string

const (
	TypeUser      EntityType = "user"
	TypeAgent     EntityType = "agent"
	TypeWorkspace EntityType = "workspace"
	TypeDocument  EntityType = "document"
)

// EntityTypes returns every mentionable type.
func EntityTypes() []EntityType {
	return []EntityType{TypeUser, TypeAgent, TypeWorkspace, TypeDocument}
}

// ParseEntityType parses a type filter name, case-insensitively.
func ParseEntityType(s string) (EntityType, bool) {
	t := EntityType(strings.ToLower(s))
	switch t {
	case TypeUser, TypeAgent, TypeWorkspace, TypeDocument:
		return t, true
	default:
		return "", false
	}
}

// =============================================================================
// CANDIDATES & PILLS
// =============================================================================

// Candidate is a mention search result.
type Candidate struct {
	ID          string         `json:"id"`
	Type        EntityType     `json:"type"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Label returns the display name, falling back to the name.
func (c Candidate) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// Pill is a resolved mention. Its ID is the entity id and is never
// regenerated; it is the only join key between text and pill list.
type Pill struct {
	ID          string         `json:"id"`
	Type        EntityType     `json:"type"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewPill builds the pill for a selected candidate.
func NewPill(c Candidate) Pill {
	var meta map[string]any
	if len(c.Metadata) > 0 {
		meta = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
	}
	return Pill{
		ID:          c.ID,
		Type:        c.Type,
		Name:        c.Name,
		DisplayName: c.Label(),
		Metadata:    meta,
	}
}

// Placeholder returns the token that stands for the pill in text.
func (p Pill) Placeholder() string {
	return Placeholder(p.ID)
}

// Label returns "@" plus the display name.
func (p Pill) Label() string {
	if p.DisplayName != "" {
		return "@" + p.DisplayName
	}
	return "@" + p.Name
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Searcher finds mention candidates. Result order and size are the
// searcher's choice.
type Searcher interface {
	SearchMentions(ctx context.Context, query string, filter EntityType) ([]Candidate, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string, filter EntityType) ([]Candidate, error)

// SearchMentions implements Searcher.
func (f SearcherFunc) SearchMentions(ctx context.Context, query string, filter EntityType) ([]Candidate, error) {
	return f(ctx, query, filter)
}

// Backlinker records that a user mentioned an entity.
type Backlinker interface {
	CreateBacklink(ctx context.Context, userID string, pill Pill) error
}

// BacklinkerFunc adapts a function to Backlinker.
type BacklinkerFunc func(ctx context.Context, userID string, pill Pill) error

// CreateBacklink implements Backlinker.
func (f BacklinkerFunc) CreateBacklink(ctx context.Context, userID string, pill Pill) error {
	return f(ctx, userID, pill)
}

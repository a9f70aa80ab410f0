// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StateKey is the fixed key the UI state lives under.
const StateKey = "syna.ui.state"

// MaxRecentCommands bounds UIState.RecentCommands.
const MaxRecentCommands = 20

// ErrCorruptState is returned when the stored state cannot be decoded.
var ErrCorruptState = errors.New("stored UI state is corrupt")

// =============================================================================
// UI STATE
// =============================================================================

// UIState is the persisted UI state.
type UIState struct {
	Preferences     map[string]string `json:"preferences"`
	LastPanel       string            `json:"lastPanel,omitempty"`
	LastWorkspaceID string            `json:"lastWorkspaceId,omitempty"`
	LastDocumentID  string            `json:"lastDocumentId,omitempty"`
	RecentCommands  []string          `json:"recentCommands,omitempty"`
}

// DefaultUIState returns the state used before anything was saved.
func DefaultUIState() UIState {
	return UIState{Preferences: map[string]string{}}
}

// LoadState returns the stored state, or the default when none was saved.
// A corrupt value yields the default together with ErrCorruptState.
func (s *Store) LoadState(ctx context.Context) (UIState, error) {
	return loadState(ctx, s.db)
}

// SaveState replaces the stored state.
func (s *Store) SaveState(ctx context.Context, state UIState) error {
	return saveState(ctx, s.db, state)
}

// UpdateState applies fn to the stored state and saves the result in one
// transaction. A corrupt stored value is replaced.
func (s *Store) UpdateState(ctx context.Context, fn func(*UIState)) (UIState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UIState{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	state, err := loadState(ctx, tx)
	if err != nil && !errors.Is(err, ErrCorruptState) {
		return UIState{}, err
	}
	if err != nil {
		s.logger.Printf("STATE | corrupt value replaced: %v", err)
	}

	fn(&state)
	if err := saveState(ctx, tx, state); err != nil {
		return UIState{}, err
	}
	if err := tx.Commit(); err != nil {
		return UIState{}, fmt.Errorf("commit: %w", err)
	}
	return state, nil
}

// SetPreference saves one preference.
func (s *Store) SetPreference(ctx context.Context, key, value string) (UIState, error) {
	return s.UpdateState(ctx, func(st *UIState) {
		st.Preferences[key] = value
	})
}

// RecordRecentCommand moves invocation to the front of the recent list.
func (s *Store) RecordRecentCommand(ctx context.Context, invocation string) (UIState, error) {
	return s.UpdateState(ctx, func(st *UIState) {
		st.RecentCommands = PushRecent(st.RecentCommands, invocation)
	})
}

// PushRecent returns recent with invocation moved to the front, duplicates
// removed and the list capped at MaxRecentCommands. Blank input leaves the
// list unchanged.
func PushRecent(recent []string, invocation string) []string {
	invocation = strings.TrimSpace(invocation)
	if invocation == "" {
		return recent
	}
	out := []string{invocation}
	for _, c := range recent {
		if c != invocation && len(out) < MaxRecentCommands {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadState(ctx context.Context, q queryer) (UIState, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, StateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultUIState(), nil
	}
	if err != nil {
		return UIState{}, fmt.Errorf("load state: %w", err)
	}

	state := DefaultUIState()
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return DefaultUIState(), fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if state.Preferences == nil {
		state.Preferences = map[string]string{}
	}
	return state, nil
}

func saveState(ctx context.Context, q queryer, state UIState) error {
	if state.Preferences == nil {
		state.Preferences = map[string]string{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StateKey, string(data), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

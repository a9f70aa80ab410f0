// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jeranaias/syna-omnibox/internal/telemetry"
)

// SendTelemetry stores one entry. It implements telemetry.Sink.
func (s *Store) SendTelemetry(ctx context.Context, e telemetry.Entry) error {
	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO command_telemetry
		 (id, command_id, prefix, query, success, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CommandID, e.Prefix, e.Query, e.Success, errText,
		e.Duration.Milliseconds(), e.Timestamp.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("store telemetry: %w", err)
	}
	return nil
}

// RecentTelemetry returns up to limit stored entries, newest first.
func (s *Store) RecentTelemetry(ctx context.Context, limit int) ([]telemetry.Entry, error) {
	if limit <= 0 {
		limit = telemetry.DefaultCapacity
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command_id, prefix, query, success, error, duration_ms, created_at
		 FROM command_telemetry ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query telemetry: %w", err)
	}
	defer rows.Close()

	var entries []telemetry.Entry
	for rows.Next() {
		var (
			e          telemetry.Entry
			errText    sql.NullString
			durationMS int64
			created    string
		)
		if err := rows.Scan(&e.ID, &e.CommandID, &e.Prefix, &e.Query, &e.Success, &errText, &durationMS, &created); err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}
		e.Error = errText.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneTelemetry keeps the newest keep entries and deletes the rest.
func (s *Store) PruneTelemetry(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM command_telemetry WHERE id NOT IN (
			SELECT id FROM command_telemetry ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune telemetry: %w", err)
	}
	return res.RowsAffected()
}

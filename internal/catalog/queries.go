// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/refchaser/internal/query"
)

// QueryRecord is a saved query together with the batch it was built from.
type QueryRecord struct {
	query.SavedQuery `yaml:",inline"`

	Batch     string    `json:"batch" yaml:"batch"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// RecordQuery appends a built query to the history of batch.
func (s *Store) RecordQuery(ctx context.Context, batch string, q query.SavedQuery) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (batch, direction, target, mode, terms, query, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch, string(q.Direction), string(q.Target), string(q.Mode), q.Terms, q.Query,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// Queries returns the recorded queries, oldest first. An empty batch
// returns the history of every batch.
func (s *Store) Queries(ctx context.Context, batch string) ([]QueryRecord, error) {
	q := `SELECT batch, direction, target, mode, terms, query, created_at FROM queries`
	var args []any
	if batch != "" {
		q += ` WHERE batch = ?`
		args = append(args, batch)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		var (
			r                       QueryRecord
			direction, target, mode string
			createdAt               string
		)
		if err := rows.Scan(&r.Batch, &direction, &target, &mode, &r.Terms, &r.Query, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Direction = query.Direction(direction)
		r.Target = query.Target(target)
		r.Mode = query.Mode(mode)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

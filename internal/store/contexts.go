package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// InsertContext persists one immutable context record. Runs on the caller's
// Querier so the row commits or rolls back with the unit of work that
// resolved it.
func (s *Store) InsertContext(ctx context.Context, q Querier, id string, metadata map[string]string, createdAt time.Time) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("insert context: marshal metadata: %w", err)
	}

	d := s.dialect
	stmt := fmt.Sprintf(
		"INSERT INTO scribe_contexts (id, metadata, created_at) VALUES (%s, %s, %s)",
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3),
	)
	if _, err := q.ExecContext(ctx, stmt, id, string(metaJSON), createdAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert context: %w", err)
	}
	return nil
}

// GetContextMetadata reads back the metadata of one context record.
func (s *Store) GetContextMetadata(ctx context.Context, q Querier, id string) (map[string]string, error) {
	stmt := fmt.Sprintf("SELECT metadata FROM scribe_contexts WHERE id = %s", s.dialect.Placeholder(1))

	var metaJSON string
	if err := q.QueryRowContext(ctx, stmt, id).Scan(&metaJSON); err != nil {
		return nil, fmt.Errorf("get context %q: %w", id, err)
	}
	metadata := map[string]string{}
	if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
		return nil, fmt.Errorf("get context %q: decode metadata: %w", id, err)
	}
	return metadata, nil
}

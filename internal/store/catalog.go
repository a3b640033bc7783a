package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scribedb/scribe/internal/rule"
)

// ErrRuleNotFound is returned when a named rule is absent from the catalog.
var ErrRuleNotFound = errors.New("rule not found")

// InstalledRule is one row of the rules catalog: the persisted form of a
// capture rule plus its content-hash annotation.
type InstalledRule struct {
	Name        string
	ContentHash string
	Entity      string
	Operation   rule.Op
	WatchSet    []string
	Label       string
	Definition  rule.Definition
	InstalledAt time.Time
}

// Querier is the subset of sql.DB/sql.Tx the catalog operations need, so
// they can run standalone or inside an installer transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertRule writes an installed rule into the catalog, replacing any prior
// row with the same name.
func (s *Store) UpsertRule(ctx context.Context, q Querier, r InstalledRule) error {
	watchJSON, err := json.Marshal(watchOrEmpty(r.WatchSet))
	if err != nil {
		return fmt.Errorf("upsert rule: marshal watch-set: %w", err)
	}
	defJSON, err := json.Marshal(r.Definition)
	if err != nil {
		return fmt.Errorf("upsert rule: marshal definition: %w", err)
	}

	d := s.dialect
	stmt := fmt.Sprintf(`
		INSERT INTO scribe_rules
		(name, content_hash, target_entity, operation, watch_set, label, definition, installed_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT(name) DO UPDATE SET
			content_hash = excluded.content_hash,
			target_entity = excluded.target_entity,
			operation = excluded.operation,
			watch_set = excluded.watch_set,
			label = excluded.label,
			definition = excluded.definition,
			installed_at = excluded.installed_at
	`, d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4),
		d.Placeholder(5), d.Placeholder(6), d.Placeholder(7), d.Placeholder(8))

	_, err = q.ExecContext(ctx, stmt,
		r.Name,
		r.ContentHash,
		r.Entity,
		string(r.Operation),
		string(watchJSON),
		r.Label,
		string(defJSON),
		r.InstalledAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

// GetRule reads one installed rule by name.
// Returns ErrRuleNotFound if the name is absent.
func (s *Store) GetRule(ctx context.Context, q Querier, name string) (InstalledRule, error) {
	stmt := fmt.Sprintf(`
		SELECT name, content_hash, target_entity, operation, watch_set, label, definition, installed_at
		FROM scribe_rules WHERE name = %s
	`, s.dialect.Placeholder(1))

	row := q.QueryRowContext(ctx, stmt, name)
	r, err := scanRule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return InstalledRule{}, fmt.Errorf("get rule %q: %w", name, ErrRuleNotFound)
	}
	if err != nil {
		return InstalledRule{}, fmt.Errorf("get rule %q: %w", name, err)
	}
	return r, nil
}

// ListRules returns all installed rules ordered by name.
// Returns an empty slice (not nil) when the catalog is empty.
func (s *Store) ListRules(ctx context.Context, q Querier) ([]InstalledRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, content_hash, target_entity, operation, watch_set, label, definition, installed_at
		FROM scribe_rules ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	installed := []InstalledRule{}
	for rows.Next() {
		r, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list rules: %w", err)
		}
		installed = append(installed, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return installed, nil
}

// RulesForEntity returns installed rules targeting one entity, ordered by name.
func (s *Store) RulesForEntity(ctx context.Context, q Querier, entity string) ([]InstalledRule, error) {
	stmt := fmt.Sprintf(`
		SELECT name, content_hash, target_entity, operation, watch_set, label, definition, installed_at
		FROM scribe_rules WHERE target_entity = %s ORDER BY name ASC
	`, s.dialect.Placeholder(1))

	rows, err := q.QueryContext(ctx, stmt, entity)
	if err != nil {
		return nil, fmt.Errorf("rules for entity %q: %w", entity, err)
	}
	defer rows.Close()

	installed := []InstalledRule{}
	for rows.Next() {
		r, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("rules for entity %q: %w", entity, err)
		}
		installed = append(installed, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rules for entity %q: %w", entity, err)
	}
	return installed, nil
}

// DeleteRule removes a rule from the catalog.
// Returns ErrRuleNotFound if no row was deleted.
func (s *Store) DeleteRule(ctx context.Context, q Querier, name string) error {
	stmt := fmt.Sprintf("DELETE FROM scribe_rules WHERE name = %s", s.dialect.Placeholder(1))
	res, err := q.ExecContext(ctx, stmt, name)
	if err != nil {
		return fmt.Errorf("delete rule %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule %q: rows affected: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete rule %q: %w", name, ErrRuleNotFound)
	}
	return nil
}

// scanRule decodes one catalog row from a Scan-shaped function.
func scanRule(scan func(dest ...any) error) (InstalledRule, error) {
	var (
		r           InstalledRule
		op          string
		watchJSON   string
		defJSON     string
		installedAt string
	)
	if err := scan(&r.Name, &r.ContentHash, &r.Entity, &op, &watchJSON, &r.Label, &defJSON, &installedAt); err != nil {
		return InstalledRule{}, err
	}
	r.Operation = rule.Op(op)
	if err := json.Unmarshal([]byte(watchJSON), &r.WatchSet); err != nil {
		return InstalledRule{}, fmt.Errorf("decode watch-set: %w", err)
	}
	if err := json.Unmarshal([]byte(defJSON), &r.Definition); err != nil {
		return InstalledRule{}, fmt.Errorf("decode definition: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, installedAt)
	if err != nil {
		return InstalledRule{}, fmt.Errorf("decode installed_at: %w", err)
	}
	r.InstalledAt = ts
	return r, nil
}

// watchOrEmpty keeps the persisted watch-set a JSON array, never null.
func watchOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}

package capture

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scribedb/scribe/internal/rule"
	"github.com/scribedb/scribe/internal/store"
)

// Session is one unit of work: a transaction plus the session-local ignore
// stack and context. Not safe for concurrent use.
type Session struct {
	engine   *Engine
	tx       *sql.Tx
	byEntity map[string][]store.InstalledRule

	ignored   ignoreStack
	contextID string
	done      bool
}

// Tx exposes the session's transaction for hosts that run their own DML and
// feed changes through Apply.
func (s *Session) Tx() *sql.Tx {
	return s.tx
}

// Commit commits the transaction. Emitted events become durable together
// with the mutations that produced them.
func (s *Session) Commit() error {
	if s.done {
		return fmt.Errorf("session already finished")
	}
	s.done = true
	s.clearScopes()
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Rollback aborts the transaction, discarding staged events along with the
// triggering mutations. Safe to call after Commit (no-op).
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	s.clearScopes()
	if err := s.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback session: %w", err)
	}
	return nil
}

// clearScopes drops suppression and context state at end of the unit of
// work, so nothing leaks into a session that reuses this memory.
func (s *Session) clearScopes() {
	s.ignored.restore(nil)
	s.contextID = ""
}

// Suppress pushes ruleName onto the session's ignore stack. While present,
// the named rule emits nothing; the underlying mutations still proceed.
func (s *Session) Suppress(ruleName string) {
	s.ignored.push(ruleName)
}

// Unsuppress pops the most recent suppression of ruleName. Unsuppressing a
// name that is not suppressed is a no-op.
func (s *Session) Unsuppress(ruleName string) {
	s.ignored.pop(ruleName)
}

// IsSuppressed reports whether ruleName is currently suppressed.
func (s *Session) IsSuppressed(ruleName string) bool {
	return s.ignored.contains(ruleName)
}

// WithSuppressed runs body with the named rules suppressed and restores the
// prior suppression state on every exit path, including panic.
func (s *Session) WithSuppressed(names []string, body func() error) error {
	prev := s.ignored.snapshot()
	defer s.ignored.restore(prev)

	for _, n := range names {
		s.ignored.push(n)
	}
	return body()
}

// SetContext resolves a context record for this unit of work and returns its
// id. The record is persisted immediately (in the session's transaction) and
// attached to every event emitted afterwards. A second call replaces the
// active context: last writer wins.
func (s *Session) SetContext(ctx context.Context, metadata map[string]string) (string, error) {
	id := uuid.NewString()
	if err := s.engine.store.InsertContext(ctx, s.tx, id, metadata, s.engine.now()); err != nil {
		return "", fmt.Errorf("set context: %w", err)
	}
	s.contextID = id
	return id, nil
}

// CurrentContext returns the active context id, if any. No active context is
// legal: events are then recorded without one.
func (s *Session) CurrentContext() (string, bool) {
	return s.contextID, s.contextID != ""
}

// WithContext runs body under the given context record and restores the
// previously active context on every exit path, including panic.
func (s *Session) WithContext(ctx context.Context, metadata map[string]string, body func() error) error {
	prev := s.contextID
	defer func() { s.contextID = prev }()

	if _, err := s.SetContext(ctx, metadata); err != nil {
		return err
	}
	return body()
}

// Apply runs the capture state machine for one row-level change. For every
// rule installed on the changed entity with a matching operation:
// the ignore stack is checked first (suppressed rules terminate with no side
// effect), then the change predicate (updates only), then the event is
// emitted. An emission failure propagates so the caller aborts the
// transaction; a suppressed or skipped rule is silent.
//
// Hosts that run their own DML call this once per mutated row, on the same
// session whose transaction performed the mutation.
func (s *Session) Apply(ctx context.Context, ch Change) error {
	if s.done {
		return fmt.Errorf("apply: session already finished")
	}
	if err := ch.Validate(); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	for _, installed := range s.byEntity[ch.Entity] {
		if installed.Operation != ch.Op {
			continue
		}
		if s.ignored.contains(installed.Name) {
			continue
		}
		if !ShouldEmit(installed.Definition, ch.Old, ch.New) {
			continue
		}
		if err := s.emit(ctx, installed, ch); err != nil {
			return err
		}
	}
	return nil
}

// InsertRow inserts a row into a tracked entity and captures it, both inside
// the session's transaction.
func (s *Session) InsertRow(ctx context.Context, entity string, row Row) error {
	def, err := s.entityDef(entity)
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}

	d := s.engine.store.Dialect()
	cols := make([]string, 0, len(row))
	placeholders := make([]string, 0, len(row))
	args := make([]any, 0, len(row))
	for _, c := range def.Columns {
		v, ok := row[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, d.QuoteIdent(c.Name))
		placeholders = append(placeholders, d.Placeholder(len(args)+1))
		args = append(args, v)
	}
	if len(cols) == 0 {
		return fmt.Errorf("insert row: no known columns for entity %q", entity)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(entity), joinComma(cols), joinComma(placeholders))
	if _, err := s.tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert row into %q: %w", entity, err)
	}

	return s.Apply(ctx, Change{Entity: entity, Op: rule.OpInsert, New: row})
}

// UpdateRow applies the given column changes to the row identified by key,
// capturing the pre-image first. The old image is read before the update so
// the snapshot reflects the row as it was.
func (s *Session) UpdateRow(ctx context.Context, entity string, key Row, changes Row) error {
	def, err := s.entityDef(entity)
	if err != nil {
		return fmt.Errorf("update row: %w", err)
	}

	old, err := s.readRow(ctx, def, key)
	if err != nil {
		return fmt.Errorf("update row in %q: %w", entity, err)
	}

	d := s.engine.store.Dialect()
	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)+len(key))
	for _, c := range def.Columns {
		v, ok := changes[c.Name]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(c.Name), d.Placeholder(len(args)+1)))
		args = append(args, v)
	}
	if len(sets) == 0 {
		return fmt.Errorf("update row in %q: no known columns in change set", entity)
	}

	where, args, err := s.keyPredicate(def, key, args)
	if err != nil {
		return fmt.Errorf("update row in %q: %w", entity, err)
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.QuoteIdent(entity), joinComma(sets), where)
	if _, err := s.tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update row in %q: %w", entity, err)
	}

	newRow := old.Clone()
	for k, v := range changes {
		newRow[k] = v
	}
	return s.Apply(ctx, Change{Entity: entity, Op: rule.OpUpdate, Old: old, New: newRow})
}

// DeleteRow deletes the row identified by key, capturing its pre-image.
// Deleting the origin row never deletes its history.
func (s *Session) DeleteRow(ctx context.Context, entity string, key Row) error {
	def, err := s.entityDef(entity)
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}

	old, err := s.readRow(ctx, def, key)
	if err != nil {
		return fmt.Errorf("delete row from %q: %w", entity, err)
	}

	d := s.engine.store.Dialect()
	where, args, err := s.keyPredicate(def, key, nil)
	if err != nil {
		return fmt.Errorf("delete row from %q: %w", entity, err)
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", d.QuoteIdent(entity), where)
	if _, err := s.tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete row from %q: %w", entity, err)
	}

	return s.Apply(ctx, Change{Entity: entity, Op: rule.OpDelete, Old: old})
}

// readRow fetches the full current image of one row by primary key.
func (s *Session) readRow(ctx context.Context, def rule.Entity, key Row) (Row, error) {
	d := s.engine.store.Dialect()

	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = d.QuoteIdent(c.Name)
	}

	where, args, err := s.keyPredicate(def, key, nil)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s", joinComma(cols), d.QuoteIdent(def.Name), where)
	vals := make([]any, len(def.Columns))
	ptrs := make([]any, len(def.Columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.tx.QueryRowContext(ctx, stmt, args...).Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}

	row := make(Row, len(def.Columns))
	for i, c := range def.Columns {
		row[c.Name] = normalizeValue(vals[i])
	}
	return row, nil
}

// keyPredicate builds the WHERE clause over the entity's primary key,
// appending the key values to args.
func (s *Session) keyPredicate(def rule.Entity, key Row, args []any) (string, []any, error) {
	d := s.engine.store.Dialect()
	preds := make([]string, 0, len(def.PrimaryKey))
	for _, k := range def.PrimaryKey {
		v, ok := key[k]
		if !ok {
			return "", nil, fmt.Errorf("missing primary key column %q", k)
		}
		preds = append(preds, fmt.Sprintf("%s = %s", d.QuoteIdent(k), d.Placeholder(len(args)+1)))
		args = append(args, v)
	}
	return joinAnd(preds), args, nil
}

func joinComma(parts []string) string { return strings.Join(parts, ", ") }
func joinAnd(parts []string) string   { return strings.Join(parts, " AND ") }

// timestamp formats an emission or context timestamp for storage.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

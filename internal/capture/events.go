package capture

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event is one captured mutation read back from an event table. Events are
// immutable: the engine only ever inserts them.
type Event struct {
	EventID   int64
	Row       Row
	Label     string
	CreatedAt time.Time
	ContextID string // empty when the event was emitted without a context
}

// Events returns all captured events for an entity in insertion order. The
// entity must have at least one installed rule (the event table's column
// layout comes from the rule's entity declaration).
func (e *Engine) Events(ctx context.Context, entity string) ([]Event, error) {
	rules, err := e.store.RulesForEntity(ctx, e.store.DB(), entity)
	if err != nil {
		return nil, fmt.Errorf("events for %q: %w", entity, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("events for %q: no capture rules installed", entity)
	}
	def := rules[0].Definition.Entity

	d := e.store.Dialect()
	cols := make([]string, 0, len(def.Columns)+4)
	cols = append(cols, d.QuoteIdent("event_id"))
	for _, c := range def.Columns {
		cols = append(cols, d.QuoteIdent(c.Name))
	}
	cols = append(cols, d.QuoteIdent("label"), d.QuoteIdent("created_at"), d.QuoteIdent("context_id"))

	stmt := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC",
		joinComma(cols), d.QuoteIdent(rules[0].Definition.EventTable()), d.QuoteIdent("event_id"))

	rows, err := e.store.DB().QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("events for %q: %w", entity, err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev        Event
			createdAt string
			contextID sql.NullString
		)
		vals := make([]any, len(def.Columns))
		ptrs := make([]any, 0, len(def.Columns)+4)
		ptrs = append(ptrs, &ev.EventID)
		for i := range vals {
			ptrs = append(ptrs, &vals[i])
		}
		ptrs = append(ptrs, &ev.Label, &createdAt, &contextID)

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("events for %q: %w", entity, err)
		}

		ev.Row = make(Row, len(def.Columns))
		for i, c := range def.Columns {
			ev.Row[c.Name] = normalizeValue(vals[i])
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("events for %q: decode created_at: %w", entity, err)
		}
		ev.CreatedAt = ts
		if contextID.Valid {
			ev.ContextID = contextID.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events for %q: %w", entity, err)
	}
	return events, nil
}

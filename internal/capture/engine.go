package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/scribedb/scribe/internal/rule"
	"github.com/scribedb/scribe/internal/store"
)

// Engine owns the store connection and hands out capture sessions.
// Safe for concurrent use; each session is independent.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// NewEngine creates an engine over the given store.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// NewEngineWithClock creates an engine with an injected clock so tests can
// pin event timestamps.
func NewEngineWithClock(s *store.Store, now func() time.Time) *Engine {
	return &Engine{store: s, now: now}
}

// Begin starts a unit of work: one transaction plus fresh session-local
// suppression and context state. The installed rules are loaded at session
// start, so a reinstall is visible to every session begun afterwards.
func (e *Engine) Begin(ctx context.Context) (*Session, error) {
	rules, err := e.store.ListRules(ctx, e.store.DB())
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	byEntity := make(map[string][]store.InstalledRule)
	for _, r := range rules {
		byEntity[r.Entity] = append(byEntity[r.Entity], r)
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	return &Session{
		engine:   e,
		tx:       tx,
		byEntity: byEntity,
	}, nil
}

// entityDef resolves a tracked entity's declaration from the rules installed
// over it.
func (s *Session) entityDef(entity string) (rule.Entity, error) {
	rules := s.byEntity[entity]
	if len(rules) == 0 {
		return rule.Entity{}, fmt.Errorf("no capture rules installed for entity %q", entity)
	}
	return rules[0].Definition.Entity, nil
}

package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/scribedb/scribe/internal/store"
)

// EmissionError reports a failed event persist. It always propagates to the
// caller: an event that cannot be written must abort the mutation it
// mirrors, never be swallowed.
type EmissionError struct {
	Rule string
	Err  error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("emit event for rule %q: %v", e.Rule, e.Err)
}

func (e *EmissionError) Unwrap() error {
	return e.Err
}

// IsEmissionError returns true if err is (or wraps) an emission failure.
func IsEmissionError(err error) bool {
	var ee *EmissionError
	return errors.As(err, &ee)
}

// emit persists one event record in the session's transaction: the change's
// snapshot image (pre-image for update/delete, post-image for insert), the
// rule's label, the emission-time timestamp, and the current context id, if
// any.
func (s *Session) emit(ctx context.Context, installed store.InstalledRule, ch Change) error {
	d := s.engine.store.Dialect()
	image := ch.snapshot()

	cols := make([]string, 0, len(image)+3)
	placeholders := make([]string, 0, len(image)+3)
	args := make([]any, 0, len(image)+3)

	add := func(col string, v any) {
		cols = append(cols, d.QuoteIdent(col))
		placeholders = append(placeholders, d.Placeholder(len(args)+1))
		args = append(args, v)
	}

	for _, c := range installed.Definition.Entity.Columns {
		if v, ok := image[c.Name]; ok {
			add(c.Name, v)
		}
	}
	add("label", installed.Label)
	add("created_at", timestamp(s.engine.now()))
	if id, ok := s.CurrentContext(); ok {
		add("context_id", id)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(installed.Definition.EventTable()), joinComma(cols), joinComma(placeholders))
	if _, err := s.tx.ExecContext(ctx, stmt, args...); err != nil {
		return &EmissionError{Rule: installed.Name, Err: err}
	}
	return nil
}

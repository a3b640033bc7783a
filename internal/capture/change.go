package capture

import (
	"fmt"

	"github.com/scribedb/scribe/internal/rule"
)

// Row is one row image: column name to value. Values follow database/sql
// conventions (int64, float64, string, []byte, bool, nil).
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Change is one row-level mutation notification: the operation kind plus the
// applicable row images. Old is required for update and delete (the
// pre-image), New for insert and update (the post-image).
type Change struct {
	Entity string
	Op     rule.Op
	Old    Row
	New    Row
}

// Validate checks that the images required by the operation are present.
func (c Change) Validate() error {
	if c.Entity == "" {
		return fmt.Errorf("change: entity is required")
	}
	if err := rule.ValidateOp(c.Op); err != nil {
		return fmt.Errorf("change: %w", err)
	}
	switch c.Op {
	case rule.OpInsert:
		if c.New == nil {
			return fmt.Errorf("change: insert requires the new row image")
		}
	case rule.OpUpdate:
		if c.Old == nil || c.New == nil {
			return fmt.Errorf("change: update requires both row images")
		}
	case rule.OpDelete:
		if c.Old == nil {
			return fmt.Errorf("change: delete requires the old row image")
		}
	}
	return nil
}

// snapshot returns the image persisted for this change: the pre-image for
// destructive operations, the post-image for insertions.
func (c Change) snapshot() Row {
	if c.Op == rule.OpInsert {
		return c.New
	}
	return c.Old
}

// normalizeValue collapses equivalent driver and caller representations so
// that comparisons are not fooled by int vs int64 or []byte vs string.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// valuesEqual is the null-aware comparison used by the change predicate:
// NULL equals NULL (unchanged), NULL is distinct from any non-null value.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return normalizeValue(a) == normalizeValue(b)
}

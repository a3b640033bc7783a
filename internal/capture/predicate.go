package capture

import (
	"github.com/scribedb/scribe/internal/rule"
)

// ShouldEmit decides whether a change produces an event under the given rule.
//
//   - insert and delete rules always emit
//   - update rules with a non-empty watch-set emit iff at least one watched
//     column differs between the old and new image under null-aware
//     comparison
//   - update rules with an empty watch-set fall back to whole-row
//     comparison: emit iff any column of the entity differs
//
// Columns are compared in entity declaration order and the scan
// short-circuits on the first difference, so the result is deterministic
// regardless of map iteration order.
func ShouldEmit(r rule.Definition, old, new Row) bool {
	if r.Operation != rule.OpUpdate {
		return true
	}

	if len(r.Watch) > 0 {
		for _, col := range r.Watch {
			if !valuesEqual(old[col], new[col]) {
				return true
			}
		}
		return false
	}

	for _, col := range r.Entity.Columns {
		if !valuesEqual(old[col.Name], new[col.Name]) {
			return true
		}
	}
	return false
}

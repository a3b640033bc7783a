package rule

import (
	"fmt"
	"strings"
)

// Op is the mutation class a capture rule fires on.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ValidateOp checks that op is one of insert, update, delete.
func ValidateOp(op Op) error {
	switch op {
	case OpInsert, OpUpdate, OpDelete:
		return nil
	default:
		return fmt.Errorf("invalid operation %q: must be insert, update, or delete", op)
	}
}

// Column describes one column of a tracked entity.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Entity describes a relational table under audit: its name, ordered column
// list, and primary-key column(s). An entity referenced by an installed rule
// only changes through reinstallation.
type Entity struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []Column `json:"columns" yaml:"columns"`
	PrimaryKey []string `json:"primary_key" yaml:"primary_key"`
}

// Column returns the named column and whether it exists.
func (e Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsPrimaryKey reports whether name is one of the entity's key columns.
func (e Entity) IsPrimaryKey(name string) bool {
	for _, k := range e.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Validate checks structural soundness of an entity declaration.
func (e Entity) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if len(e.Columns) == 0 {
		return fmt.Errorf("entity %q: at least one column is required", e.Name)
	}
	seen := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if c.Name == "" {
			return fmt.Errorf("entity %q: column with empty name", e.Name)
		}
		if c.Type == "" {
			return fmt.Errorf("entity %q: column %q has no type", e.Name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("entity %q: duplicate column %q", e.Name, c.Name)
		}
		seen[c.Name] = true
	}
	if len(e.PrimaryKey) == 0 {
		return fmt.Errorf("entity %q: primary key is required", e.Name)
	}
	for _, k := range e.PrimaryKey {
		if !seen[k] {
			return fmt.Errorf("entity %q: primary key column %q not declared", e.Name, k)
		}
	}
	return nil
}

// Definition is one capture rule: a tracked entity, the operation it fires
// on, an optional watch-set (update only), and the label stamped onto every
// event it emits.
//
// Watch-set semantics are explicit: a nil or empty Watch on an update rule
// means whole-row comparison (emit when any column differs), never "always
// emit". Insert and delete rules carry no watch-set.
type Definition struct {
	Name      string   `json:"name" yaml:"name"`
	Entity    Entity   `json:"entity" yaml:"-"`
	Operation Op       `json:"operation" yaml:"operation"`
	Watch     []string `json:"watch,omitempty" yaml:"watch,omitempty"`
	Label     string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// Default event labels, matching the discriminators emitted by snapshot
// rules in the origin schema.
const (
	LabelInsertSnapshot         = "insert_snapshot"
	LabelUpdateOrDeleteSnapshot = "update_or_delete_snapshot"
)

// EffectiveLabel returns the label stamped on emitted events: the declared
// label, or the default snapshot discriminator for the operation.
func (d Definition) EffectiveLabel() string {
	if d.Label != "" {
		return d.Label
	}
	if d.Operation == OpInsert {
		return LabelInsertSnapshot
	}
	return LabelUpdateOrDeleteSnapshot
}

// EventTable returns the name of the append-only table this rule's events
// are mirrored into.
func (d Definition) EventTable() string {
	return d.Entity.Name + "_event"
}

// Validate checks that the definition is structurally sound: the entity
// validates, the operation is known, and every watched column exists on the
// entity. Watch-sets on insert or delete rules are rejected.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if strings.ContainsAny(d.Name, " \t\n") {
		return fmt.Errorf("rule %q: name must not contain whitespace", d.Name)
	}
	if err := d.Entity.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", d.Name, err)
	}
	if err := ValidateOp(d.Operation); err != nil {
		return fmt.Errorf("rule %q: %w", d.Name, err)
	}
	if len(d.Watch) > 0 && d.Operation != OpUpdate {
		return fmt.Errorf("rule %q: watch-set is only valid on update rules", d.Name)
	}
	seen := make(map[string]bool, len(d.Watch))
	for _, w := range d.Watch {
		if _, ok := d.Entity.Column(w); !ok {
			return fmt.Errorf("rule %q: watched column %q not in entity %q", d.Name, w, d.Entity.Name)
		}
		if seen[w] {
			return fmt.Errorf("rule %q: duplicate watched column %q", d.Name, w)
		}
		seen[w] = true
	}
	return nil
}

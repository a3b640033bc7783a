package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/scribedb/scribe/internal/rule"
)

// Dialect abstracts the SQL differences between supported backends.
// The capture path and the installer are dialect-independent; everything
// they need from the backend goes through this interface.
type Dialect interface {
	// Name returns the dialect identifier ("sqlite" or "postgres").
	Name() string

	// Placeholder returns the parameter placeholder for 1-based position n.
	Placeholder(n int) string

	// QuoteIdent quotes a table or column identifier.
	QuoteIdent(name string) string

	// ColumnType maps a generic definition column type to the backend type.
	ColumnType(t string) string

	// CatalogSchema returns the idempotent DDL for the catalog tables.
	CatalogSchema() string

	// LockInstall acquires the schema-change lock guarding concurrent
	// installers racing on the same rule name. Held until the transaction
	// ends.
	LockInstall(ctx context.Context, tx *sql.Tx, name string) error
}

// DialectFor returns the dialect registered under the given name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	case "postgres":
		return PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q: must be sqlite or postgres", name)
	}
}

// EventTableDDL generates the CREATE TABLE statement for a rule's event
// table: the tracked entity's columns (all nullable, since events carry
// partial images for entities that grew columns later) plus the event
// bookkeeping columns.
//
// Event tables are shared by all rules over the same entity, so the DDL is
// CREATE TABLE IF NOT EXISTS and derived from the entity alone.
func EventTableDDL(d Dialect, def rule.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.QuoteIdent(def.EventTable()))
	fmt.Fprintf(&b, "    %s %s,\n", d.QuoteIdent("event_id"), eventIDColumn(d))
	for _, c := range def.Entity.Columns {
		fmt.Fprintf(&b, "    %s %s,\n", d.QuoteIdent(c.Name), d.ColumnType(c.Type))
	}
	fmt.Fprintf(&b, "    %s TEXT NOT NULL,\n", d.QuoteIdent("label"))
	fmt.Fprintf(&b, "    %s TEXT NOT NULL,\n", d.QuoteIdent("created_at"))
	fmt.Fprintf(&b, "    %s TEXT\n", d.QuoteIdent("context_id"))
	b.WriteString(")")
	return b.String()
}

func eventIDColumn(d Dialect) string {
	if d.Name() == "postgres" {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresDialect backs the store with PostgreSQL via lib/pq.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (PostgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (PostgresDialect) ColumnType(t string) string {
	switch strings.ToLower(t) {
	case "integer":
		return "BIGINT"
	case "text":
		return "TEXT"
	case "boolean":
		return "BOOLEAN"
	case "blob":
		return "BYTEA"
	default:
		return strings.ToUpper(t)
	}
}

func (PostgresDialect) CatalogSchema() string { return postgresSchema }

// LockInstall takes a transaction-scoped advisory lock keyed on the rule
// name, so two installers racing on the same name serialize even across
// processes. Released automatically at commit or rollback.
func (PostgresDialect) LockInstall(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", name); err != nil {
		return fmt.Errorf("acquire install lock for %q: %w", name, err)
	}
	return nil
}

// OpenPostgres connects to PostgreSQL and applies the catalog schema.
// Idempotent - safe to call multiple times against the same database.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, dialect: PostgresDialect{}}
	if err := s.applyCatalogSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

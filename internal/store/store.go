package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Store wraps a database connection together with its dialect.
// Construct with Open (SQLite) or OpenPostgres.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an existing connection for hosts that manage their own pool.
// The caller is responsible for schema setup having run (via Open /
// OpenPostgres or out-of-band migrations).
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the backend dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// BeginTx starts a transaction on the store.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// applyCatalogSchema executes the dialect's idempotent catalog DDL.
func (s *Store) applyCatalogSchema() error {
	if _, err := s.db.Exec(s.dialect.CatalogSchema()); err != nil {
		return fmt.Errorf("failed to execute catalog schema: %w", err)
	}
	return nil
}

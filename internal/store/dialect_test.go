package store

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/scribedb/scribe/internal/rule"
)

func audioDefinition() rule.Definition {
	return rule.Definition{
		Name:      "audio_update",
		Operation: rule.OpUpdate,
		Watch:     []string{"sha1", "download_url"},
		Entity: rule.Entity{
			Name:       "audio",
			PrimaryKey: []string{"id"},
			Columns: []rule.Column{
				{Name: "id", Type: "integer"},
				{Name: "case_name", Type: "text"},
				{Name: "sha1", Type: "text"},
				{Name: "download_url", Type: "text"},
			},
		},
	}
}

// Golden tests pin the generated event-table DDL per dialect. Regenerate
// with: go test ./internal/store -update
func TestEventTableDDL_SQLiteGolden(t *testing.T) {
	g := goldie.New(t)
	ddl := EventTableDDL(SQLiteDialect{}, audioDefinition())
	g.Assert(t, "event_table_sqlite", []byte(ddl))
}

func TestEventTableDDL_PostgresGolden(t *testing.T) {
	g := goldie.New(t)
	ddl := EventTableDDL(PostgresDialect{}, audioDefinition())
	g.Assert(t, "event_table_postgres", []byte(ddl))
}

// The DDL must execute against a real SQLite database.
func TestEventTableDDL_Executes(t *testing.T) {
	s := createTestStore(t)

	ddl := EventTableDDL(s.Dialect(), audioDefinition())
	if _, err := s.DB().Exec(ddl); err != nil {
		t.Fatalf("event table DDL failed to execute: %v", err)
	}

	// Shared between rules on the same entity: re-running is a no-op.
	if _, err := s.DB().Exec(ddl); err != nil {
		t.Fatalf("event table DDL is not idempotent: %v", err)
	}
}

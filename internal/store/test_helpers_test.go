package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/scribedb/scribe/internal/rule"
)

// createTestStore creates a fresh SQLite store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInstalledRule builds a catalog row for the audio update rule.
func createTestInstalledRule(t *testing.T, name string) InstalledRule {
	t.Helper()
	def := audioDefinition()
	def.Name = name
	return InstalledRule{
		Name:        name,
		ContentHash: rule.MustContentHash(def),
		Entity:      def.Entity.Name,
		Operation:   def.Operation,
		WatchSet:    def.Watch,
		Label:       def.EffectiveLabel(),
		Definition:  def,
		InstalledAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

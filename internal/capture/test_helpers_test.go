package capture

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scribedb/scribe/internal/installer"
	"github.com/scribedb/scribe/internal/rule"
	"github.com/scribedb/scribe/internal/store"
	"github.com/scribedb/scribe/internal/testutil"
)

func audioEntity() rule.Entity {
	return rule.Entity{
		Name:       "audio",
		PrimaryKey: []string{"id"},
		Columns: []rule.Column{
			{Name: "id", Type: "integer"},
			{Name: "case_name", Type: "text"},
			{Name: "sha1", Type: "text"},
			{Name: "download_url", Type: "text"},
		},
	}
}

func audioRules() []rule.Definition {
	return []rule.Definition{
		{Name: "audio_insert", Entity: audioEntity(), Operation: rule.OpInsert},
		{Name: "audio_update", Entity: audioEntity(), Operation: rule.OpUpdate, Watch: []string{"sha1", "download_url"}},
		{Name: "audio_delete", Entity: audioEntity(), Operation: rule.OpDelete},
	}
}

// newTestEngine builds a SQLite-backed engine with the audio entity, its
// three capture rules installed, and a deterministic clock.
func newTestEngine(t *testing.T) (*Engine, *installer.Installer, *store.Store) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.DB().Exec(`
		CREATE TABLE audio (
			id INTEGER PRIMARY KEY,
			case_name TEXT,
			sha1 TEXT,
			download_url TEXT
		)
	`)
	require.NoError(t, err)

	clock := testutil.NewClock(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	inst := installer.NewWithClock(s, clock.Now)
	_, err = inst.InstallAll(context.Background(), audioRules())
	require.NoError(t, err)

	return NewEngineWithClock(s, clock.Now), inst, s
}

// seedAudioRow inserts one audio row with capture suppressed so tests start
// from a clean event table.
func seedAudioRow(t *testing.T, e *Engine, row Row) {
	t.Helper()
	ctx := context.Background()

	sess, err := e.Begin(ctx)
	require.NoError(t, err)
	err = sess.WithSuppressed([]string{"audio_insert"}, func() error {
		return sess.InsertRow(ctx, "audio", row)
	})
	require.NoError(t, err)
	require.NoError(t, sess.Commit())
}

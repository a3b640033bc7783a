package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribedb/scribe/internal/store"
)

func TestVerifyMatchingRules(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	defPath := writeDefinitionFile(t, tmpDir)
	installTestRules(t, dbPath, defPath)

	out, err := runCommand("--db", dbPath, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "audio_insert: matches")
	assert.Contains(t, out, "audio_update: matches")
}

func TestVerifySingleRule(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	defPath := writeDefinitionFile(t, tmpDir)
	installTestRules(t, dbPath, defPath)

	out, err := runCommand("--db", dbPath, "verify", "audio_insert")
	require.NoError(t, err)
	assert.Contains(t, out, "audio_insert: matches")
	assert.NotContains(t, out, "audio_update")
}

func TestVerifyAbsentRule(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	out, err := runCommand("--db", dbPath, "verify", "no_such_rule")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no_such_rule: absent")
}

func TestVerifyDetectsDrift(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	defPath := writeDefinitionFile(t, tmpDir)
	installTestRules(t, dbPath, defPath)

	tamperRule(t, dbPath, "audio_update")

	out, err := runCommand("--db", dbPath, "verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "drifted")
	assert.Contains(t, out, "audio_update: drifted")
	assert.Contains(t, out, "audio_insert: matches")
}

func TestVerifyAgainstDefinitionFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	defPath := writeDefinitionFile(t, tmpDir)
	installTestRules(t, dbPath, defPath)

	out, err := runCommand("--db", dbPath, "verify", "-f", defPath)
	require.NoError(t, err)
	assert.Contains(t, out, "audio_insert: matches")
	assert.Contains(t, out, "audio_update: matches")
}

func TestVerifyJSONOutput(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	defPath := writeDefinitionFile(t, tmpDir)
	installTestRules(t, dbPath, defPath)

	out, err := runCommand("--db", dbPath, "--format", "json", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, `"audio_insert":"matches"`)
}

// tamperRule overwrites a rule's stored content hash directly, simulating an
// out-of-band catalog edit.
func tamperRule(t *testing.T, dbPath, name string) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.DB().Exec("UPDATE scribe_rules SET content_hash = 'tampered' WHERE name = ?", name)
	require.NoError(t, err)
}

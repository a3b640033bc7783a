package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUninstallInstalledRule(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	defPath := writeDefinitionFile(t, tmpDir)
	installTestRules(t, dbPath, defPath)

	out, err := runCommand("--db", dbPath, "uninstall", "audio_update")
	require.NoError(t, err)
	assert.Contains(t, out, "audio_update: uninstalled")

	listOut, err := runCommand("--db", dbPath, "list")
	require.NoError(t, err)
	assert.NotContains(t, listOut, "audio_update")
	assert.Contains(t, listOut, "audio_insert")
}

func TestUninstallUnknownRule(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	out, err := runCommand("--db", dbPath, "uninstall", "no_such_rule")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "RULE_NOT_FOUND")
}

func TestUninstallRequiresRuleName(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	_, err := runCommand("--db", dbPath, "uninstall")
	require.Error(t, err)
}

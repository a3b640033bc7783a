package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDefinitions = `
entities:
  - name: audio
    primary_key: [id]
    columns:
      - {name: id, type: integer}
      - {name: case_name, type: text}
      - {name: sha1, type: text}
rules:
  - name: audio_insert
    entity: audio
    operation: insert
  - name: audio_update
    entity: audio
    operation: update
    watch: [sha1]
`

// writeDefinitionFile writes the standard test definition file into dir and
// returns its path.
func writeDefinitionFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDefinitions), 0644))
	return path
}

// runCommand executes the root command with the given args and returns the
// combined output.
func runCommand(args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// installTestRules installs the standard definitions into the database at
// dbPath and fails the test if installation does not succeed.
func installTestRules(t *testing.T, dbPath, defPath string) {
	t.Helper()
	out, err := runCommand("--db", dbPath, "install", "-f", defPath)
	require.NoError(t, err, "install output: %s", out)
}

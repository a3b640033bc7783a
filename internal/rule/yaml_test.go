package rule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefs = `
entities:
  - name: audio
    primary_key: [id]
    columns:
      - {name: id, type: integer}
      - {name: case_name, type: text}
      - {name: sha1, type: text}
      - {name: download_url, type: text}
rules:
  - name: audio_update
    entity: audio
    operation: update
    watch: [sha1, download_url]
  - name: audio_delete
    entity: audio
    operation: delete
`

func TestParseDefinitions(t *testing.T) {
	defs, err := Parse([]byte(sampleDefs))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	upd := defs[0]
	assert.Equal(t, "audio_update", upd.Name)
	assert.Equal(t, OpUpdate, upd.Operation)
	assert.Equal(t, []string{"sha1", "download_url"}, upd.Watch)
	assert.Equal(t, "audio", upd.Entity.Name)
	assert.Equal(t, []string{"id"}, upd.Entity.PrimaryKey)

	del := defs[1]
	assert.Equal(t, OpDelete, del.Operation)
	assert.Empty(t, del.Watch)
}

func TestParseDefinitionsUnknownEntity(t *testing.T) {
	bad := `
rules:
  - name: orphan
    entity: missing
    operation: insert
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown entity "missing"`)
}

func TestParseDefinitionsDuplicateRule(t *testing.T) {
	bad := `
entities:
  - name: t
    primary_key: [id]
    columns:
      - {name: id, type: integer}
rules:
  - {name: r, entity: t, operation: insert}
  - {name: r, entity: t, operation: delete}
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate rule "r"`)
}

func TestParseDefinitionsNoRules(t *testing.T) {
	_, err := Parse([]byte(`entities: []`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rules declared")
}

func TestLoadDefinitionsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefs), 0o644))

	defs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestLoadDefinitionsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

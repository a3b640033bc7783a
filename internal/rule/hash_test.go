package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audioEntity() Entity {
	return Entity{
		Name:       "audio",
		PrimaryKey: []string{"id"},
		Columns: []Column{
			{Name: "id", Type: "integer"},
			{Name: "case_name", Type: "text"},
			{Name: "sha1", Type: "text"},
			{Name: "download_url", Type: "text"},
		},
	}
}

func audioUpdateRule() Definition {
	return Definition{
		Name:      "audio_update",
		Entity:    audioEntity(),
		Operation: OpUpdate,
		Watch:     []string{"sha1", "download_url"},
	}
}

func TestContentHashDeterminism(t *testing.T) {
	h1, err := ContentHash(audioUpdateRule())
	require.NoError(t, err)

	h2, err := ContentHash(audioUpdateRule())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "ContentHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestContentHashIgnoresWatchOrder(t *testing.T) {
	d1 := audioUpdateRule()
	d1.Watch = []string{"sha1", "download_url"}

	d2 := audioUpdateRule()
	d2.Watch = []string{"download_url", "sha1"}

	assert.Equal(t, MustContentHash(d1), MustContentHash(d2),
		"watch-set declaration order must not affect the hash")
}

func TestContentHashChangesWithDefinition(t *testing.T) {
	base := MustContentHash(audioUpdateRule())

	renamed := audioUpdateRule()
	renamed.Name = "audio_update_v2"

	widened := audioUpdateRule()
	widened.Watch = append(widened.Watch, "case_name")

	relabeled := audioUpdateRule()
	relabeled.Label = "custom_snapshot"

	retyped := audioUpdateRule()
	retyped.Entity.Columns[2].Type = "varchar"

	assert.NotEqual(t, base, MustContentHash(renamed), "name change must change hash")
	assert.NotEqual(t, base, MustContentHash(widened), "watch-set change must change hash")
	assert.NotEqual(t, base, MustContentHash(relabeled), "label change must change hash")
	assert.NotEqual(t, base, MustContentHash(retyped), "column type change must change hash")
}

func TestContentHashOperationDistinguishes(t *testing.T) {
	upd := audioUpdateRule()

	del := audioUpdateRule()
	del.Operation = OpDelete
	del.Watch = nil

	assert.NotEqual(t, MustContentHash(upd), MustContentHash(del))
}

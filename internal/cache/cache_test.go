package cache_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medulla-kb/medulla/internal/cache"
	"github.com/medulla-kb/medulla/internal/store"
	"github.com/medulla-kb/medulla/internal/types"
)

// countingEmbedder records every text it was asked to embed, so tests can
// assert Sync only recomputes vectors for entities whose content changed.
type countingEmbedder struct {
	calls []string
}

func (e *countingEmbedder) Embed(text string) ([]float32, error) {
	e.calls = append(e.calls, text)
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(sum[i])
	}
	return vec, nil
}

func newTestCache(t *testing.T, embedder *countingEmbedder) (*cache.Cache, *store.Document) {
	t.Helper()
	root := t.TempDir()
	doc, err := store.Init(root)
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	c, err := cache.Open(root, embedder)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, doc
}

func TestSyncIsNoopWhenHeadsUnchanged(t *testing.T) {
	embedder := &countingEmbedder{}
	c, doc := newTestCache(t, embedder)
	_, err := doc.AddEntity(types.Entity{Type: types.TypeNote, Title: "N"}, "alice")
	require.NoError(t, err)
	require.NoError(t, doc.Save())

	require.NoError(t, c.Sync(doc))
	firstCalls := len(embedder.calls)
	require.NoError(t, c.Sync(doc))
	require.Equal(t, firstCalls, len(embedder.calls), "second Sync with unchanged heads must not re-embed")
}

// TestSyncOnlyReembedsChangedEntities is the regression for the reviewed
// bug where rebuildLocked dropped the embeddings table on every call,
// making refreshEmbedding's unchanged-hash skip always miss. A mutation
// that only touches one entity must not cause every other entity's
// embedding to be recomputed.
func TestSyncOnlyReembedsChangedEntities(t *testing.T) {
	embedder := &countingEmbedder{}
	c, doc := newTestCache(t, embedder)

	stable, err := doc.AddEntity(types.Entity{Type: types.TypeNote, Title: "Stable", Content: "unchanging"}, "alice")
	require.NoError(t, err)
	changing, err := doc.AddEntity(types.Entity{Type: types.TypeNote, Title: "Changing", Content: "v1"}, "alice")
	require.NoError(t, err)
	require.NoError(t, doc.Save())
	require.NoError(t, c.Sync(doc))
	require.Len(t, embedder.calls, 2)

	title := "Changing"
	content := "v2"
	_, err = doc.UpdateEntity(types.TypeNote, changing.ID, types.Patch{Title: &title, Content: &content}, "alice")
	require.NoError(t, err)
	require.NoError(t, doc.Save())
	require.NoError(t, c.Sync(doc))

	require.Len(t, embedder.calls, 3, "only the changed entity should have been re-embedded")
	stableCalls := 0
	for _, call := range embedder.calls {
		if call == "Stable\nunchanging\n" {
			stableCalls++
		}
	}
	require.Equal(t, 1, stableCalls, "the unchanged entity's text must only have been embedded once, at the first sync")

	var count int
	require.NoError(t, c.DB().QueryRow(`SELECT count(*) FROM embeddings`).Scan(&count))
	require.Equal(t, 2, count, "both entities must still have an embedding row after a partial update")

	var hash string
	require.NoError(t, c.DB().QueryRow(`SELECT text_hash FROM embeddings WHERE id = ?`, stable.ID).Scan(&hash))
	sum := sha256.Sum256([]byte("Stable\nunchanging\n"))
	require.Equal(t, hex.EncodeToString(sum[:]), hash)
}

func TestRebuildDropsEmbeddingsForDeletedEntities(t *testing.T) {
	embedder := &countingEmbedder{}
	c, doc := newTestCache(t, embedder)

	e, err := doc.AddEntity(types.Entity{Type: types.TypeNote, Title: "Gone"}, "alice")
	require.NoError(t, err)
	require.NoError(t, doc.Save())
	require.NoError(t, c.Sync(doc))

	var count int
	require.NoError(t, c.DB().QueryRow(`SELECT count(*) FROM embeddings`).Scan(&count))
	require.Equal(t, 1, count)

	require.NoError(t, doc.DeleteEntity(types.TypeNote, e.ID))
	require.NoError(t, doc.Save())
	require.NoError(t, c.Rebuild(doc))

	require.NoError(t, c.DB().QueryRow(`SELECT count(*) FROM embeddings`).Scan(&count))
	require.Equal(t, 0, count, "deleted entity's embedding row must not survive a rebuild")
}

func TestRebuildRederivesRelationalTables(t *testing.T) {
	c, doc := newTestCache(t, nil)
	e, err := doc.AddEntity(types.Entity{Type: types.TypeTask, Title: "T"}, "alice")
	require.NoError(t, err)
	require.NoError(t, doc.Save())
	require.NoError(t, c.Rebuild(doc))

	var title string
	require.NoError(t, c.DB().QueryRow(`SELECT title FROM entities WHERE id = ?`, e.ID).Scan(&title))
	require.Equal(t, "T", title)

	var status string
	require.NoError(t, c.DB().QueryRow(`SELECT status FROM tasks WHERE id = ?`, e.ID).Scan(&status))
	require.Equal(t, string(types.TaskTodo), status)
}

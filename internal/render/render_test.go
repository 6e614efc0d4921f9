package render_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medulla-kb/medulla/internal/render"
	"github.com/medulla-kb/medulla/internal/store"
	"github.com/medulla-kb/medulla/internal/types"
)

func TestRenderDecisionFrontmatter(t *testing.T) {
	root := t.TempDir()
	doc, err := store.Init(root)
	require.NoError(t, err)

	status := types.DecisionAccepted
	_, err = doc.AddEntity(types.Entity{
		Type: types.TypeDecision, Title: "Use PostgreSQL",
		DecisionStatus: status, Tags: []string{"database"},
	}, "alice")
	require.NoError(t, err)

	require.NoError(t, render.Render(doc, root))

	data, err := os.ReadFile(filepath.Join(root, ".medulla", "snapshot", "decisions", "001-use-postgresql.md"))
	require.NoError(t, err)
	require.Contains(t, string(data), "status: accepted")
}

func TestRenderIsDeterministicModuloTimestamp(t *testing.T) {
	root := t.TempDir()
	doc, err := store.Init(root)
	require.NoError(t, err)
	_, err = doc.AddEntity(types.Entity{Type: types.TypeTask, Title: "Write docs"}, "alice")
	require.NoError(t, err)

	require.NoError(t, render.Render(doc, root))
	first, err := os.ReadFile(filepath.Join(root, ".medulla", "snapshot", "tasks", "active.md"))
	require.NoError(t, err)

	require.NoError(t, render.Render(doc, root))
	second, err := os.ReadFile(filepath.Join(root, ".medulla", "snapshot", "tasks", "active.md"))
	require.NoError(t, err)

	require.Equal(t, string(first), string(second))
}

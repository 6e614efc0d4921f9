package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medulla-kb/medulla/internal/store"
	"github.com/medulla-kb/medulla/internal/types"
)

func newTestDoc(t *testing.T) *store.Document {
	t.Helper()
	root := t.TempDir()
	d, err := store.Init(root)
	require.NoError(t, err)
	return d
}

func TestAddAndGetEntity(t *testing.T) {
	d := newTestDoc(t)
	e, err := d.AddEntity(types.Entity{
		Type:  types.TypeDecision,
		Title: "Use PostgreSQL",
		Tags:  []string{"database"},
	}, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, e.Sequence)
	require.Equal(t, types.DecisionProposed, e.DecisionStatus)

	got, err := d.GetEntity(types.TypeDecision, e.ID)
	require.NoError(t, err)
	require.Equal(t, e.Title, got.Title)
	require.Equal(t, []string{"database"}, got.Tags)
}

func TestEntityCreateRejectsEmptyTitle(t *testing.T) {
	d := newTestDoc(t)
	_, err := d.AddEntity(types.Entity{Type: types.TypeTask, Title: ""}, "alice")
	require.Error(t, err)
	require.Equal(t, types.KindValidationFailed, types.KindOf(err))
}

func TestSaveAndReopenRoundTrip(t *testing.T) {
	root := t.TempDir()
	d, err := store.Init(root)
	require.NoError(t, err)
	_, err = d.AddEntity(types.Entity{Type: types.TypeTask, Title: "Write tests"}, "alice")
	require.NoError(t, err)
	require.NoError(t, d.Save())
	require.NoError(t, d.Close())

	reopened, err := store.Open(root)
	require.NoError(t, err)
	defer reopened.Close()
	tasks, err := reopened.ListEntities(types.TypeTask)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Write tests", tasks[0].Title)
}

func TestTaskReadyBlocksRelation(t *testing.T) {
	d := newTestDoc(t)
	t1, err := d.AddEntity(types.Entity{Type: types.TypeTask, Title: "T1"}, "alice")
	require.NoError(t, err)
	t2, err := d.AddEntity(types.Entity{Type: types.TypeTask, Title: "T2"}, "alice")
	require.NoError(t, err)

	require.NoError(t, d.AddRelation(types.Relation{
		SourceID: t2.ID, SourceType: types.TypeTask,
		TargetID: t1.ID, TargetType: types.TypeTask,
		RelationType: types.RelBlocks,
	}, "alice"))

	rels, err := d.ListRelations(t1.ID, types.DirectionTo)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	require.Equal(t, t2.ID, rels[0].SourceID)
}

func TestDecisionSupersedeIsIdempotent(t *testing.T) {
	d := newTestDoc(t)
	d1, err := d.AddEntity(types.Entity{Type: types.TypeDecision, Title: "Old"}, "alice")
	require.NoError(t, err)
	d2, err := d.AddEntity(types.Entity{Type: types.TypeDecision, Title: "New"}, "alice")
	require.NoError(t, err)

	_, err = d.SupersedeDecision(d1.ID, d2.ID, "alice")
	require.NoError(t, err)
	_, err = d.SupersedeDecision(d1.ID, d2.ID, "alice")
	require.NoError(t, err)

	old, err := d.GetEntity(types.TypeDecision, d1.ID)
	require.NoError(t, err)
	require.Equal(t, types.DecisionSuperseded, old.DecisionStatus)
	require.Equal(t, d2.ID, old.SupersededBy)

	rels, err := d.ListRelations(d2.ID, types.DirectionFrom)
	require.NoError(t, err)
	count := 0
	for _, r := range rels {
		if r.RelationType == types.RelSupersedes {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestSelfRelationRejected(t *testing.T) {
	d := newTestDoc(t)
	e, err := d.AddEntity(types.Entity{Type: types.TypeTask, Title: "T"}, "alice")
	require.NoError(t, err)
	err = d.AddRelation(types.Relation{
		SourceID: e.ID, SourceType: types.TypeTask,
		TargetID: e.ID, TargetType: types.TypeTask,
		RelationType: types.RelBlocks,
	}, "alice")
	require.Error(t, err)
	require.Equal(t, types.KindSelfReferentialRelation, types.KindOf(err))
}

// TestMergeCombinesDivergentBranches exercises the scenario the git merge
// driver runs: two branches diverge from a shared snapshot, each adds a
// different task, and merging must produce a document containing both with
// contiguous sequence numbers — the §8 scenario 4 cross-branch merge.
func TestMergeCombinesDivergentBranches(t *testing.T) {
	root := t.TempDir()
	d, err := store.Init(root)
	require.NoError(t, err)
	_, err = d.AddEntity(types.Entity{Type: types.TypeTask, Title: "Shared"}, "alice")
	require.NoError(t, err)
	require.NoError(t, d.Save())
	require.NoError(t, d.Close())

	snapshot := filepath.Join(root, ".medulla", "loro.db")

	ours, err := store.OpenSnapshotFile(snapshot)
	require.NoError(t, err)
	_, err = ours.AddEntity(types.Entity{Type: types.TypeTask, Title: "Ours"}, "alice")
	require.NoError(t, err)

	theirs, err := store.OpenSnapshotFile(snapshot)
	require.NoError(t, err)
	_, err = theirs.AddEntity(types.Entity{Type: types.TypeTask, Title: "Theirs"}, "bob")
	require.NoError(t, err)

	require.NoError(t, ours.Merge(theirs))
	require.NoError(t, ours.Reconcile())

	tasks, err := ours.ListEntities(types.TypeTask)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	titles := map[string]bool{}
	for _, task := range tasks {
		titles[task.Title] = true
	}
	require.True(t, titles["Shared"] && titles["Ours"] && titles["Theirs"])
	for i, task := range tasks {
		require.Equal(t, i+1, task.Sequence)
	}
}

func TestReconcileProducesContiguousSequences(t *testing.T) {
	d := newTestDoc(t)
	for i := 0; i < 5; i++ {
		_, err := d.AddEntity(types.Entity{Type: types.TypeTask, Title: "T"}, "alice")
		require.NoError(t, err)
	}
	require.NoError(t, d.Reconcile())
	tasks, err := d.ListEntities(types.TypeTask)
	require.NoError(t, err)
	seen := map[int]bool{}
	for _, task := range tasks {
		require.False(t, seen[task.Sequence], "duplicate sequence number")
		seen[task.Sequence] = true
	}
	require.Len(t, seen, 5)
	for i := 1; i <= 5; i++ {
		require.True(t, seen[i], "sequence numbers must be contiguous from 1")
	}
}

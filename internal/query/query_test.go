package query_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medulla-kb/medulla/internal/config"
	"github.com/medulla-kb/medulla/internal/service"
	"github.com/medulla-kb/medulla/internal/types"
)

func TestMain(m *testing.M) {
	if err := config.Initialize(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	root := t.TempDir()
	svc, err := service.Init(root)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestFullTextSearchRanksMatches(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateEntity(types.Entity{Type: types.TypeNote, Title: "Postgres tuning notes", Content: "vacuum and autovacuum settings"}, "alice")
	require.NoError(t, err)
	_, err = svc.CreateEntity(types.Entity{Type: types.TypeNote, Title: "Unrelated", Content: "nothing to see here"}, "alice")
	require.NoError(t, err)

	res, err := svc.Engine.FullTextSearch("postgres", types.TypeNote, 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Postgres tuning notes", res[0].Title)
}

func TestSemanticSearchWithoutEmbedderFails(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Engine.SemanticSearch("anything", "", 5)
	require.Error(t, err)
	require.Equal(t, types.KindEmbeddingUnavailable, types.KindOf(err))
}

func TestGraphRelationsBothDirections(t *testing.T) {
	svc := newTestService(t)
	a, err := svc.CreateEntity(types.Entity{Type: types.TypeComponent, Title: "API"}, "alice")
	require.NoError(t, err)
	b, err := svc.CreateEntity(types.Entity{Type: types.TypeDecision, Title: "Use REST"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.AddRelation(types.Relation{
		SourceID: a.ID, SourceType: types.TypeComponent,
		TargetID: b.ID, TargetType: types.TypeDecision,
		RelationType: types.RelImplements,
	}, "alice"))

	out, err := svc.Engine.GraphRelations(a.ID, types.DirectionBoth)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, b.ID, out[0].EntityID)
	require.Equal(t, types.DirectionFrom, out[0].Direction)
}

func TestGraphPathMaxDepthZeroReturnsEmptyUnlessSameEntity(t *testing.T) {
	svc := newTestService(t)
	a, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "A"}, "alice")
	require.NoError(t, err)
	b, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "B"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.AddRelation(types.Relation{
		SourceID: a.ID, SourceType: types.TypeTask,
		TargetID: b.ID, TargetType: types.TypeTask,
		RelationType: types.RelBlocks,
	}, "alice"))

	path, err := svc.Engine.GraphPath(a.ID, b.ID, 0)
	require.NoError(t, err)
	require.Nil(t, path, "max_depth=0 between distinct entities must return no path, not an unbounded search")

	path, err = svc.Engine.GraphPath(a.ID, a.ID, 0)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID}, path, "from == to must short-circuit regardless of max_depth")
}

func TestGraphPathFindsShortestRoute(t *testing.T) {
	svc := newTestService(t)
	a, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "A"}, "alice")
	require.NoError(t, err)
	b, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "B"}, "alice")
	require.NoError(t, err)
	c, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "C"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.AddRelation(types.Relation{SourceID: a.ID, SourceType: types.TypeTask, TargetID: b.ID, TargetType: types.TypeTask, RelationType: types.RelBlocks}, "alice"))
	require.NoError(t, svc.AddRelation(types.Relation{SourceID: b.ID, SourceType: types.TypeTask, TargetID: c.ID, TargetType: types.TypeTask, RelationType: types.RelBlocks}, "alice"))

	path, err := svc.Engine.GraphPath(a.ID, c.ID, 5)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, b.ID, c.ID}, path)
}

func TestGraphOrphansExcludesRelatedEntities(t *testing.T) {
	svc := newTestService(t)
	related, err := svc.CreateEntity(types.Entity{Type: types.TypeComponent, Title: "Related"}, "alice")
	require.NoError(t, err)
	orphan, err := svc.CreateEntity(types.Entity{Type: types.TypeComponent, Title: "Orphan"}, "alice")
	require.NoError(t, err)
	decision, err := svc.CreateEntity(types.Entity{Type: types.TypeDecision, Title: "D"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.AddRelation(types.Relation{
		SourceID: related.ID, SourceType: types.TypeComponent,
		TargetID: decision.ID, TargetType: types.TypeDecision,
		RelationType: types.RelImplements,
	}, "alice"))

	orphans, err := svc.Engine.GraphOrphans(types.TypeComponent)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, orphan.ID, orphans[0].ID)
}

func TestReadyAndBlockedTasks(t *testing.T) {
	svc := newTestService(t)
	blocker, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "Blocker"}, "alice")
	require.NoError(t, err)
	blocked, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "Blocked"}, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.AddRelation(types.Relation{
		SourceID: blocker.ID, SourceType: types.TypeTask,
		TargetID: blocked.ID, TargetType: types.TypeTask,
		RelationType: types.RelBlocks,
	}, "alice"))

	ready, err := svc.Engine.ReadyTasks(0, "")
	require.NoError(t, err)
	readyIDs := map[string]bool{}
	for _, r := range ready {
		readyIDs[r.ID] = true
	}
	require.True(t, readyIDs[blocker.ID])
	require.False(t, readyIDs[blocked.ID])

	blockedTasks, err := svc.Engine.BlockedTasks("")
	require.NoError(t, err)
	require.Len(t, blockedTasks, 1)
	require.Equal(t, blocked.ID, blockedTasks[0].Task.ID)
	require.Len(t, blockedTasks[0].Blockers, 1)
	require.Equal(t, blocker.ID, blockedTasks[0].Blockers[0].ID)
}

package service_test

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

func TestCreateEntitySyncsCache(t *testing.T) {
	svc := newTestService(t)

	e, err := svc.CreateEntity(types.Entity{
		Type:  types.TypeTask,
		Title: "Write service tests",
	}, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, e.Sequence)

	res, err := svc.Engine.FullTextSearch("service tests", types.TypeTask, 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestUpdateEntityClosesOnTaskDone(t *testing.T) {
	svc := newTestService(t)
	e, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "T"}, "alice")
	require.NoError(t, err)

	done := types.TaskDone
	updated, err := svc.UpdateEntity(types.TypeTask, e.ID, types.Patch{TaskStatus: &done}, "alice")
	require.NoError(t, err)
	require.Equal(t, types.TaskDone, updated.TaskStatus)
}

func TestSupersedeDecisionThroughService(t *testing.T) {
	svc := newTestService(t)
	oldD, err := svc.CreateEntity(types.Entity{Type: types.TypeDecision, Title: "Old"}, "alice")
	require.NoError(t, err)
	newD, err := svc.CreateEntity(types.Entity{Type: types.TypeDecision, Title: "New"}, "alice")
	require.NoError(t, err)

	old, err := svc.SupersedeDecision(oldD.ID, newD.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, types.DecisionSuperseded, old.DecisionStatus)
}

func TestOpenRejectsUninitializedWorkspace(t *testing.T) {
	root := t.TempDir()
	_, err := service.Open(root)
	require.Error(t, err)
	require.Equal(t, types.KindNotInitialized, types.KindOf(err))
}

func TestRenderSnapshotWritesFiles(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateEntity(types.Entity{Type: types.TypeTask, Title: "Snapshot me"}, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.RenderSnapshot())
	_, err = os.Stat(svc.Root + "/.medulla/snapshot/tasks/active.md")
	require.NoError(t, err)
}

package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/validation"
)

func loadedProjects(t *testing.T, gw *fakeGateway) *ProjectList {
	t.Helper()
	l := NewProjectList(gw)
	require.NoError(t, l.Load(context.Background()))
	return l
}

func mainID(l *ProjectList) string {
	p, ok := l.Main()
	if !ok {
		return ""
	}
	return p.ID
}

func TestProjectList_SetMain(t *testing.T) {
	gw := &fakeGateway{projects: []project.Project{
		{ID: "p1", Name: "One", IsMain: true},
		{ID: "p2", Name: "Two"},
	}}
	l := loadedProjects(t, gw)
	ctx := context.Background()

	op, err := l.SetMain(ctx, "p2")
	require.NoError(t, err)
	require.Equal(t, "p2", mainID(l))
	require.NoError(t, op.Wait(ctx))
	require.Equal(t, 1, gw.callCount("SetMainProject"))

	for _, p := range l.Projects() {
		require.Equal(t, p.ID == "p2", p.IsMain)
	}

	op, err = l.SetMain(ctx, "p2")
	require.NoError(t, err)
	require.Equal(t, OpIdle, op.State())
	require.Equal(t, 1, gw.callCount("SetMainProject"))
}

func TestProjectList_SetMainRollsBack(t *testing.T) {
	gw := &fakeGateway{
		projects: []project.Project{
			{ID: "p1", Name: "One", IsMain: true},
			{ID: "p2", Name: "Two"},
		},
		fail: errServer,
	}
	l := loadedProjects(t, gw)
	ctx := context.Background()

	op, err := l.SetMain(ctx, "p2")
	require.NoError(t, err)
	require.ErrorIs(t, op.Wait(ctx), errServer)
	require.Equal(t, OpRolledBack, op.State())
	require.Equal(t, "p1", mainID(l))

	_, err = l.SetMain(ctx, "ghost")
	require.ErrorIs(t, err, ErrUnknownProject)
}

func TestProjectList_Create(t *testing.T) {
	gw := &fakeGateway{projects: []project.Project{{ID: "p1", Name: "One", IsMain: true}}}
	l := loadedProjects(t, gw)
	ctx := context.Background()

	_, err := l.CreateProject(ctx, project.Project{Name: " "})
	require.ErrorIs(t, err, validation.ErrInvalidInput)

	gw.gate = make(chan struct{})
	op, err := l.CreateProject(ctx, project.Project{Name: "  Two ", IsMain: true})
	require.NoError(t, err)
	pending, ok := l.Project(op.ID())
	require.True(t, ok)
	require.Equal(t, "Two", pending.Name)
	require.Equal(t, project.DefaultLogo, pending.Logo)
	require.Equal(t, op.ID(), mainID(l))

	close(gw.gate)
	require.NoError(t, op.Wait(ctx))
	id, ok := l.Resolve(op.ID())
	require.True(t, ok)
	got, ok := l.Project(id)
	require.True(t, ok)
	require.True(t, got.IsMain)
	require.Len(t, l.Projects(), 2)
}

func TestProjectList_CreateFailureRestoresMain(t *testing.T) {
	gw := &fakeGateway{
		projects: []project.Project{{ID: "p1", Name: "One", IsMain: true}},
		fail:     errServer,
	}
	l := loadedProjects(t, gw)
	ctx := context.Background()

	op, err := l.CreateProject(ctx, project.Project{Name: "Two", IsMain: true})
	require.NoError(t, err)
	require.Error(t, op.Wait(ctx))
	require.Len(t, l.Projects(), 1)
	require.Equal(t, "p1", mainID(l))
}

func TestProjectList_UpdateRollsBack(t *testing.T) {
	gw := &fakeGateway{projects: []project.Project{{ID: "p1", Name: "One", TaskCount: 3}}}
	l := loadedProjects(t, gw)
	ctx := context.Background()

	op, err := l.UpdateProject(ctx, project.Project{ID: "p1", Name: "Renamed"})
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	got, _ := l.Project("p1")
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, 3, got.TaskCount)

	gw.setFail(errServer)
	op, err = l.UpdateProject(ctx, project.Project{ID: "p1", Name: "Lost"})
	require.NoError(t, err)
	require.Error(t, op.Wait(ctx))
	got, _ = l.Project("p1")
	require.Equal(t, "Renamed", got.Name)
}

func TestProjectList_DeleteFailureReloads(t *testing.T) {
	gw := &fakeGateway{projects: []project.Project{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}}}
	l := loadedProjects(t, gw)
	ctx := context.Background()

	gw.setFail(errServer)
	op, err := l.DeleteProject(ctx, "p1")
	require.NoError(t, err)
	require.Error(t, op.Wait(ctx))
	require.Len(t, l.Projects(), 2)
	require.Equal(t, 2, gw.callCount("ListProjects"))

	gw.setFail(nil)
	op, err = l.DeleteProject(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	_, ok := l.Project("p1")
	require.False(t, ok)
}

package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/taskboard/internal/client"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/testserver"
)

func TestClient_ProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t).Client

	created, err := c.CreateProject(ctx, project.Project{ID: "ignored", Name: "Client"})
	require.NoError(t, err)
	require.NotEqual(t, "ignored", created.ID)
	require.Equal(t, project.DefaultLogo, created.Logo)

	created.Description = "described"
	updated, err := c.UpdateProject(ctx, *created)
	require.NoError(t, err)
	require.Equal(t, "described", updated.Description)

	main, err := c.SetMainProject(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, main.IsMain)

	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, c.DeleteProject(ctx, created.ID))
	_, err = c.GetProject(ctx, created.ID)
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestClient_TaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t).Client

	proj, err := c.CreateProject(ctx, project.Project{Name: "Board"})
	require.NoError(t, err)

	created, err := c.CreateTask(ctx, task.Task{
		ID:        "tmp-1",
		Title:     "From client",
		ProjectID: proj.ID,
		ChecklistItems: []task.ChecklistItem{
			{ID: "tmp-item", Title: "step"},
		},
	})
	require.NoError(t, err)
	require.NotEqual(t, "tmp-1", created.ID)
	require.Equal(t, task.StatusTodo, created.Status)
	require.Len(t, created.ChecklistItems, 1)

	created.Status = task.StatusDone
	updated, err := c.UpdateTask(ctx, *created)
	require.NoError(t, err)
	require.Equal(t, task.StatusDone, updated.Status)
	require.Equal(t, created.ChecklistItems[0].ID, updated.ChecklistItems[0].ID)

	toggled, err := c.SetChecklistItem(ctx, created.ID, created.ChecklistItems[0].ID, true)
	require.NoError(t, err)
	require.True(t, toggled.ChecklistItems[0].Completed)

	stats, err := c.ProjectStats(ctx, proj.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Done)

	tasks, err := c.ListTasks(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	err = c.DeleteTask(ctx, created.ID)
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestClient_ValidationError(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t).Client

	_, err := c.CreateProject(ctx, project.Project{Name: ""})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 400, apiErr.Status)
	require.Equal(t, "name is required", apiErr.Message)
	require.ErrorIs(t, err, client.ErrInvalid)
	require.NotErrorIs(t, err, client.ErrNotFound)
}

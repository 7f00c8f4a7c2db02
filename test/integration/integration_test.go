package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/taskboard/internal/board"
	"github.com/rpggio/taskboard/internal/client"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/forms"
	"github.com/rpggio/taskboard/internal/seed"
	"github.com/rpggio/taskboard/internal/testserver"
)

func TestScenario_ProjectWithChecklistTask(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t).Client

	p, err := c.CreateProject(ctx, project.Project{Name: "P"})
	require.NoError(t, err)

	_, err = c.CreateTask(ctx, task.Task{
		Title:     "T",
		ProjectID: p.ID,
		ChecklistItems: []task.ChecklistItem{
			{Title: "a", Completed: false},
			{Title: "b", Completed: true},
		},
	})
	require.NoError(t, err)

	tasks, err := c.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].ChecklistItems, 2)
	require.Equal(t, "a", tasks[0].ChecklistItems[0].Title)
	require.False(t, tasks[0].ChecklistItems[0].Completed)
	require.Equal(t, "b", tasks[0].ChecklistItems[1].Title)
	require.True(t, tasks[0].ChecklistItems[1].Completed)

	read, err := c.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, read.TaskCount)
}

func TestScenario_DeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t).Client

	p, err := c.CreateProject(ctx, project.Project{Name: "Doomed"})
	require.NoError(t, err)
	created, err := c.CreateTask(ctx, task.Task{
		Title: "Owned", ProjectID: p.ID,
		ChecklistItems: []task.ChecklistItem{{Title: "step"}},
	})
	require.NoError(t, err)

	require.NoError(t, c.DeleteProject(ctx, p.ID))

	_, err = c.GetTask(ctx, created.ID)
	require.ErrorIs(t, err, client.ErrNotFound)
	all, err := c.ListTasks(ctx, "")
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestProperty_CreateThenGetMatchesDraft(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t).Client
	p, err := c.CreateProject(ctx, project.Project{Name: "P"})
	require.NoError(t, err)

	planned := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	drafts := []task.Task{
		{Title: "defaults", ProjectID: p.ID},
		{Title: "full", Description: "d", Status: task.StatusDone, Priority: task.PriorityLow, ProjectID: p.ID, PlannedDate: &planned},
		{Title: "with items", ProjectID: p.ID, ChecklistItems: []task.ChecklistItem{{Title: "x", Completed: true}}},
	}
	for _, draft := range drafts {
		t.Run(draft.Title, func(t *testing.T) {
			created, err := c.CreateTask(ctx, draft)
			require.NoError(t, err)
			got, err := c.GetTask(ctx, created.ID)
			require.NoError(t, err)

			require.Equal(t, draft.Title, got.Title)
			require.Equal(t, draft.Description, got.Description)
			require.Equal(t, draft.ProjectID, got.ProjectID)
			if draft.Status != "" {
				require.Equal(t, draft.Status, got.Status)
			} else {
				require.Equal(t, task.StatusTodo, got.Status)
			}
			if draft.Priority != "" {
				require.Equal(t, draft.Priority, got.Priority)
			} else {
				require.Equal(t, task.PriorityMedium, got.Priority)
			}
			if draft.PlannedDate != nil {
				require.NotNil(t, got.PlannedDate)
				require.True(t, draft.PlannedDate.Equal(*got.PlannedDate))
			} else {
				require.Nil(t, got.PlannedDate)
			}
			require.Len(t, got.ChecklistItems, len(draft.ChecklistItems))
			require.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestProperty_StatusUpdateChangesOnlyStatus(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t, testserver.WithSeed()).Client

	tasks, err := c.ListTasks(ctx, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	before := tasks[0]

	for _, s := range []task.Status{task.StatusInProgress, task.StatusDone, task.StatusTodo} {
		patch := before.Clone()
		patch.Status = s
		_, err := c.UpdateTask(ctx, patch)
		require.NoError(t, err)

		got, err := c.GetTask(ctx, before.ID)
		require.NoError(t, err)
		require.Equal(t, s, got.Status)
		require.Equal(t, before.Title, got.Title)
		require.Equal(t, before.Priority, got.Priority)
		require.Equal(t, before.ProjectID, got.ProjectID)
		require.Len(t, got.ChecklistItems, len(before.ChecklistItems))
	}
}

func TestProperty_DeletedTaskLeavesList(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t, testserver.WithSeed()).Client
	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)

	created, err := c.CreateTask(ctx, task.Task{Title: "e", ProjectID: projects[0].ID})
	require.NoError(t, err)
	require.NoError(t, c.DeleteTask(ctx, created.ID))

	list, err := c.ListTasks(ctx, projects[0].ID)
	require.NoError(t, err)
	for _, tk := range list {
		require.NotEqual(t, created.ID, tk.ID)
	}
}

func TestProperty_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, testserver.WithSeed())

	seeded, err := seed.Run(ctx, ts.Store, nil)
	require.NoError(t, err)
	require.False(t, seeded)

	projects, err := ts.Client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Website Redesign", projects[0].Name)
	require.True(t, projects[0].IsMain)
}

func TestProperty_ChecklistReplaceOnUpdate(t *testing.T) {
	ctx := context.Background()
	c := testserver.New(t, testserver.WithSeed()).Client
	tasks, err := c.ListTasks(ctx, "")
	require.NoError(t, err)
	base := tasks[0]

	for _, n := range []int{3, 0, 1} {
		patch := base.Clone()
		patch.ChecklistItems = nil
		for i := range n {
			patch.ChecklistItems = append(patch.ChecklistItems, task.ChecklistItem{Title: string(rune('a' + i))})
		}
		_, err := c.UpdateTask(ctx, patch)
		require.NoError(t, err)

		got, err := c.GetTask(ctx, base.ID)
		require.NoError(t, err)
		require.Len(t, got.ChecklistItems, n)
	}
}

func TestScenario_ValidationAndNotFound(t *testing.T) {
	ts := testserver.New(t)

	post := func(path string, body any) *http.Response {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		resp, err := http.Post(ts.URL()+path, "application/json", bytes.NewReader(data))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/api/projects", map[string]any{"description": "no name"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "name is required", body.Error)

	resp = post("/api/tasks", map[string]any{"projectId": "x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err := ts.Client.GetTask(context.Background(), "missing")
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestScenario_BoardOverHTTP(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, testserver.WithSeed())

	projects := board.NewProjectList(ts.Client)
	require.NoError(t, projects.Load(ctx))
	main, ok := projects.Main()
	require.True(t, ok)

	b := board.New(ts.Client, main.ID)
	require.NoError(t, b.Load(ctx))
	todo := b.Bucket(task.StatusTodo)
	require.Len(t, todo, 1)

	op, err := b.MoveTask(ctx, todo[0].ID, task.StatusInProgress)
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	stored, err := ts.Tasks.Get(ctx, todo[0].ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusInProgress, stored.Status)

	draft := forms.NewTaskDraft(main.ID)
	draft.SetTitle("Write copy")
	draft.AddChecklistItem("headline")
	require.True(t, draft.CanSave())
	op, err = b.CreateTask(ctx, draft.Task())
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))

	id, ok := b.Resolve(op.ID())
	require.True(t, ok)
	created, err := ts.Tasks.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Write copy", created.Title)
	require.Len(t, created.ChecklistItems, 1)

	op, err = b.DeleteTask(ctx, id)
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	_, err = ts.Tasks.Get(ctx, id)
	require.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestScenario_BoardMoveRollsBackWhenServerRejects(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, testserver.WithSeed())
	tasks, err := ts.Client.ListTasks(ctx, "")
	require.NoError(t, err)
	seeded := tasks[0]

	b := board.New(ts.Client, seeded.ProjectID)
	require.NoError(t, b.Load(ctx))

	// The task vanishes behind the board's back, so the update is refused.
	require.NoError(t, ts.Tasks.Delete(ctx, seeded.ID))

	op, err := b.MoveTask(ctx, seeded.ID, task.StatusInProgress)
	require.NoError(t, err)
	require.ErrorIs(t, op.Wait(ctx), client.ErrNotFound)

	require.Len(t, b.Bucket(task.StatusTodo), 1)
	require.Empty(t, b.Bucket(task.StatusInProgress))
}

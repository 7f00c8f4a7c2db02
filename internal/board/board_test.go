package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

func sampleTask(id string, status task.Status, items ...task.ChecklistItem) task.Task {
	return task.Task{
		ID: id, Title: "Task " + id, Status: status, Priority: task.PriorityMedium,
		ProjectID: "p1", ChecklistItems: items,
	}
}

func loadedBoard(t *testing.T, gw *fakeGateway, opts ...Option) *Board {
	t.Helper()
	b := New(gw, "p1", opts...)
	require.NoError(t, b.Load(context.Background()))
	return b
}

func ids(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func waitOp(t *testing.T, op *Op) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not settle")
	}
}

func TestBoard_LoadPartitionsByStatus(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{
		sampleTask("a", task.StatusTodo),
		sampleTask("b", task.StatusDone),
		sampleTask("c", task.StatusTodo),
		{ID: "other", Title: "x", Status: task.StatusTodo, ProjectID: "p2"},
	}}
	b := loadedBoard(t, gw)

	buckets := b.Buckets()
	require.Equal(t, []string{"a", "c"}, ids(buckets[task.StatusTodo]))
	require.Empty(t, buckets[task.StatusInProgress])
	require.Equal(t, []string{"b"}, ids(buckets[task.StatusDone]))
}

func TestBoard_LoadFailure(t *testing.T) {
	gw := &fakeGateway{failList: errServer}
	b := New(gw, "p1")
	require.ErrorIs(t, b.Load(context.Background()), errServer)
	require.Empty(t, b.Tasks())
}

func TestBoard_MoveIsVisibleBeforeServerAnswers(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo)}}
	b := loadedBoard(t, gw)
	gw.gate = make(chan struct{})

	op, err := b.MoveTask(context.Background(), "a", task.StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, OpPending, op.State())
	require.Equal(t, []string{"a"}, ids(b.Bucket(task.StatusInProgress)))
	require.Empty(t, b.Bucket(task.StatusTodo))

	close(gw.gate)
	waitOp(t, op)
	require.Equal(t, OpCommitted, op.State())
	require.NoError(t, op.Err())
	require.Equal(t, []string{"a"}, ids(b.Bucket(task.StatusInProgress)))
	require.Equal(t, task.StatusInProgress, gw.tasks[0].Status)
}

func TestBoard_MoveRollsBackOnFailure(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo)}, fail: errServer}
	b := loadedBoard(t, gw)
	before := b.Buckets()

	op, err := b.MoveTask(context.Background(), "a", task.StatusInProgress)
	require.NoError(t, err)
	require.ErrorIs(t, op.Wait(context.Background()), errServer)
	require.Equal(t, OpRolledBack, op.State())

	after := b.Buckets()
	for _, s := range task.Statuses() {
		require.Equal(t, ids(before[s]), ids(after[s]), s)
	}
}

func TestBoard_MoveValidation(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusDone)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	_, err := b.MoveTask(ctx, "a", "BLOCKED")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = b.MoveTask(ctx, "missing", task.StatusTodo)
	require.ErrorIs(t, err, ErrUnknownTask)

	op, err := b.MoveTask(ctx, "a", task.StatusDone)
	require.NoError(t, err)
	require.Equal(t, OpIdle, op.State())
	require.Zero(t, gw.callCount("UpdateTask"))

	// DONE tasks can go back to any column.
	op, err = b.MoveTask(ctx, "a", task.StatusTodo)
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	require.Equal(t, []string{"a"}, ids(b.Bucket(task.StatusTodo)))
}

func TestBoard_DropOnTaskAdoptsItsStatus(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{
		sampleTask("a", task.StatusTodo),
		sampleTask("b", task.StatusDone),
	}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	op, err := b.DropOnTask(ctx, "a", "b")
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	moved, _ := b.Task("a")
	require.Equal(t, task.StatusDone, moved.Status)

	op, err = b.DropOnTask(ctx, "a", string(task.StatusInProgress))
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	moved, _ = b.Task("a")
	require.Equal(t, task.StatusInProgress, moved.Status)

	op, err = b.DropOnTask(ctx, "a", "a")
	require.NoError(t, err)
	require.Equal(t, OpIdle, op.State())

	_, err = b.DropOnTask(ctx, "a", "nowhere")
	require.ErrorIs(t, err, ErrUnknownTask)
}

func TestBoard_LaterMoveSurvivesEarlierRollback(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	gate := make(chan struct{})
	gw.gate = gate
	first, err := b.MoveTask(ctx, "a", task.StatusInProgress)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gw.callCount("UpdateTask") == 1 }, 2*time.Second, 5*time.Millisecond)

	gw.mu.Lock()
	gw.gate = nil
	gw.mu.Unlock()
	second, err := b.MoveTask(ctx, "a", task.StatusDone)
	require.NoError(t, err)
	require.NoError(t, second.Wait(ctx))

	gw.setFail(errServer)
	close(gate)
	waitOp(t, first)
	require.Equal(t, OpRolledBack, first.State())

	// The failed first move must not undo the second one.
	got, _ := b.Task("a")
	require.Equal(t, task.StatusDone, got.Status)
}

func TestBoard_ToggleChecklistItemWaitsForSave(t *testing.T) {
	items := []task.ChecklistItem{{ID: "i1", Title: "one"}, {ID: "i2", Title: "two"}}
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo, items...)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()
	require.NoError(t, b.OpenDetail("a"))
	before, _ := b.Task("a")

	require.NoError(t, b.ToggleChecklistItem("a", "i1"))
	require.Equal(t, 50, b.Progress("a"))
	require.True(t, b.Dirty("a"))
	detail, ok := b.Detail()
	require.True(t, ok)
	require.True(t, detail.ChecklistItems[0].Completed)
	got, _ := b.Task("a")
	require.True(t, got.UpdatedAt.After(before.UpdatedAt))

	// Nothing reaches the server until the task is saved.
	require.Zero(t, gw.callCount("UpdateTask"))
	require.False(t, gw.tasks[0].ChecklistItems[0].Completed)

	op, err := b.SaveChanges(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	require.Equal(t, 1, gw.callCount("UpdateTask"))
	require.True(t, gw.tasks[0].ChecklistItems[0].Completed)
	require.False(t, b.Dirty("a"))

	op, err = b.SaveChanges(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, OpIdle, op.State())

	require.ErrorIs(t, b.ToggleChecklistItem("a", "missing"), ErrUnknownChecklistItem)
	require.ErrorIs(t, b.ToggleChecklistItem("ghost", "i1"), ErrUnknownTask)
}

func TestBoard_FailedSaveKeepsToggleDirty(t *testing.T) {
	items := []task.ChecklistItem{{ID: "i1", Title: "one"}, {ID: "i2", Title: "two"}}
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo, items...)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	require.NoError(t, b.ToggleChecklistItem("a", "i2"))
	gw.setFail(errServer)
	op, err := b.SaveChanges(ctx, "a")
	require.NoError(t, err)
	require.ErrorIs(t, op.Wait(ctx), errServer)

	require.True(t, b.Dirty("a"))
	require.Equal(t, 50, b.Progress("a"))
}

func TestBoard_MoveCarriesPendingToggle(t *testing.T) {
	items := []task.ChecklistItem{{ID: "i1", Title: "one"}}
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo, items...)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	require.NoError(t, b.ToggleChecklistItem("a", "i1"))
	op, err := b.MoveTask(ctx, "a", task.StatusDone)
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))

	require.True(t, gw.tasks[0].ChecklistItems[0].Completed)
	require.False(t, b.Dirty("a"))
}

func TestBoard_LoadDropsUnsavedToggles(t *testing.T) {
	items := []task.ChecklistItem{{ID: "i1", Title: "one"}}
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo, items...)}}
	b := loadedBoard(t, gw)

	require.NoError(t, b.ToggleChecklistItem("a", "i1"))
	require.NoError(t, b.Load(context.Background()))
	require.False(t, b.Dirty("a"))
	require.Equal(t, 0, b.Progress("a"))
}

func TestBoard_CreateReconcilesPlaceholder(t *testing.T) {
	gw := &fakeGateway{}
	changes := make(chan struct{}, 16)
	b := loadedBoard(t, gw, WithOnChange(func() { changes <- struct{}{} }))
	ctx := context.Background()
	gw.gate = make(chan struct{})

	op, err := b.CreateTask(ctx, task.Task{
		Title:          "New",
		ChecklistItems: []task.ChecklistItem{{Title: "step"}},
	})
	require.NoError(t, err)
	require.True(t, IsPlaceholder(op.ID()))

	pending, ok := b.Task(op.ID())
	require.True(t, ok)
	require.Equal(t, task.StatusTodo, pending.Status)
	require.Equal(t, "p1", pending.ProjectID)

	_, err = b.MoveTask(ctx, op.ID(), task.StatusDone)
	require.ErrorIs(t, err, ErrPending)

	close(gw.gate)
	require.NoError(t, op.Wait(ctx))

	serverID, ok := b.Resolve(op.ID())
	require.True(t, ok)
	require.Equal(t, "srv-1", serverID)
	_, ok = b.Task(op.ID())
	require.False(t, ok)
	created, ok := b.Task(serverID)
	require.True(t, ok)
	require.Equal(t, "New", created.Title)
	require.Len(t, b.Tasks(), 1)
	require.NotEmpty(t, changes)
}

func TestBoard_CreateFailureRemovesPlaceholder(t *testing.T) {
	gw := &fakeGateway{fail: errServer}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	op, err := b.CreateTask(ctx, task.Task{Title: "Doomed"})
	require.NoError(t, err)
	require.Error(t, op.Wait(ctx))
	require.Empty(t, b.Tasks())
	_, ok := b.Resolve(op.ID())
	require.False(t, ok)
}

func TestBoard_CreateRejectsBlankTitle(t *testing.T) {
	b := loadedBoard(t, &fakeGateway{})

	_, err := b.CreateTask(context.Background(), task.Task{Title: "  "})
	require.ErrorIs(t, err, validation.ErrInvalidInput)
	require.Empty(t, b.Tasks())
}

func TestBoard_DeleteFailureRefetches(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo), sampleTask("b", task.StatusTodo)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()
	require.NoError(t, b.OpenDetail("a"))

	gw.setFail(errServer)
	op, err := b.DeleteTask(ctx, "a")
	require.NoError(t, err)
	require.Error(t, op.Wait(ctx))

	require.Equal(t, []string{"a", "b"}, ids(b.Tasks()))
	require.Equal(t, 2, gw.callCount("ListTasks"))
	_, open := b.Detail()
	require.False(t, open)
}

func TestBoard_DeleteCommits(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	op, err := b.DeleteTask(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, b.Tasks())
	require.NoError(t, op.Wait(ctx))
	require.Empty(t, gw.tasks)
}

func TestBoard_SaveTask(t *testing.T) {
	gw := &fakeGateway{tasks: []task.Task{sampleTask("a", task.StatusTodo)}}
	b := loadedBoard(t, gw)
	ctx := context.Background()

	edited, _ := b.Task("a")
	edited.Title = "Renamed"
	edited.Priority = task.PriorityHigh
	op, err := b.SaveTask(ctx, edited)
	require.NoError(t, err)
	require.NoError(t, op.Wait(ctx))
	got, _ := b.Task("a")
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, "Renamed", gw.tasks[0].Title)

	edited.Title = ""
	_, err = b.SaveTask(ctx, edited)
	require.True(t, errors.Is(err, validation.ErrInvalidInput))

	gw.setFail(errServer)
	edited.Title = "Lost"
	op, err = b.SaveTask(ctx, edited)
	require.NoError(t, err)
	require.Error(t, op.Wait(ctx))
	got, _ = b.Task("a")
	require.Equal(t, "Renamed", got.Title)
}

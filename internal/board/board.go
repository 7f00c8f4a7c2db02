// Package board holds the client-side view-models of the task board and the
// project list. Every mutation is applied locally before the server is asked,
// and undone if the server refuses it.
package board

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

// Board is the loaded tasks of one project, shown as three status columns.
type Board struct {
	gw        TaskGateway
	projectID string
	opts      options

	mu    sync.RWMutex
	tasks []task.Task
	// rev counts local changes per task; a settling operation only touches a
	// task nobody changed after it.
	rev     map[string]uint64
	created map[string]string
	// dirty marks tasks with checklist toggles the server has not seen yet.
	dirty  map[string]bool
	detail *task.Task
}

// New creates an empty board for projectID. Call Load to fill it.
func New(gw TaskGateway, projectID string, opts ...Option) *Board {
	return &Board{
		gw:        gw,
		projectID: projectID,
		opts:      buildOptions(opts),
		rev:       make(map[string]uint64),
		created:   make(map[string]string),
		dirty:     make(map[string]bool),
	}
}

// ProjectID is the project the board shows.
func (b *Board) ProjectID() string { return b.projectID }

// Load replaces the board with the server's tasks, dropping unsaved checklist
// toggles. Operations still in flight will not overwrite what Load brought in.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.gw.ListTasks(ctx, b.projectID)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	b.mu.Lock()
	for _, t := range b.tasks {
		b.rev[t.ID]++
	}
	b.tasks = make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		b.tasks = append(b.tasks, t.Clone())
		b.rev[t.ID]++
	}
	clear(b.dirty)
	if b.detail != nil {
		if i := b.indexLocked(b.detail.ID); i >= 0 {
			d := b.tasks[i].Clone()
			b.detail = &d
		} else {
			b.detail = nil
		}
	}
	b.mu.Unlock()

	b.opts.onChange()
	return nil
}

// Tasks returns a copy of every task on the board.
func (b *Board) Tasks() []task.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]task.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// Bucket returns the tasks whose status is status, in board order.
func (b *Board) Bucket(status task.Status) []task.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []task.Task{}
	for _, t := range b.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Buckets partitions the board into its three columns.
func (b *Board) Buckets() map[task.Status][]task.Task {
	out := make(map[task.Status][]task.Task, 3)
	for _, s := range task.Statuses() {
		out[s] = b.Bucket(s)
	}
	return out
}

// Task returns one task by ID.
func (b *Board) Task(id string) (task.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// Progress is the checklist completion percentage of a task, 0 if unknown.
func (b *Board) Progress(id string) int {
	t, ok := b.Task(id)
	if !ok {
		return 0
	}
	return t.Progress()
}

// Resolve maps the placeholder ID of a committed create to the server's ID.
func (b *Board) Resolve(placeholder string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.created[placeholder]
	return id, ok
}

// OpenDetail opens the detail view on a task.
func (b *Board) OpenDetail(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 {
		return ErrUnknownTask
	}
	d := b.tasks[i].Clone()
	b.detail = &d
	return nil
}

// Detail returns the task shown in the detail view.
func (b *Board) Detail() (task.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.detail == nil {
		return task.Task{}, false
	}
	return b.detail.Clone(), true
}

// CloseDetail closes the detail view.
func (b *Board) CloseDetail() {
	b.mu.Lock()
	b.detail = nil
	b.mu.Unlock()
}

// MoveTask changes a task's status locally and then on the server. Any status
// may follow any other. A failed update restores the task as it was.
func (b *Board) MoveTask(ctx context.Context, id string, status task.Status) (*Op, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return b.edit(ctx, id, func(t *task.Task) bool {
		if t.Status == status {
			return false
		}
		t.Status = status
		return true
	})
}

// DropOnTask handles a drag that ended over overID, which is either a column
// (a status value) or another task whose status the dragged task adopts.
func (b *Board) DropOnTask(ctx context.Context, activeID, overID string) (*Op, error) {
	if activeID == overID {
		return idleOp(activeID), nil
	}
	target := task.Status(overID)
	if !target.Valid() {
		over, ok := b.Task(overID)
		if !ok {
			return nil, ErrUnknownTask
		}
		target = over.Status
	}
	return b.MoveTask(ctx, activeID, target)
}

// SaveTask replaces a task with t, checklist included.
func (b *Board) SaveTask(ctx context.Context, t task.Task) (*Op, error) {
	if err := validation.Struct(t); err != nil {
		return nil, err
	}
	return b.edit(ctx, t.ID, func(cur *task.Task) bool {
		createdAt := cur.CreatedAt
		*cur = t.Clone()
		cur.CreatedAt = createdAt
		return true
	})
}

// edit applies change to a copy of the task, shows it, and persists it with
// UpdateTask. change returns false when nothing changed.
func (b *Board) edit(ctx context.Context, id string, change func(*task.Task) bool) (*Op, error) {
	if IsPlaceholder(id) {
		return nil, ErrPending
	}

	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return nil, ErrUnknownTask
	}
	before := b.tasks[i].Clone()
	after := before.Clone()
	if !change(&after) {
		b.mu.Unlock()
		return idleOp(id), nil
	}
	after.UpdatedAt = time.Now().UTC()
	b.tasks[i] = after
	rev := b.bumpLocked(id)
	b.syncDetailLocked(after)
	b.mu.Unlock()
	b.opts.onChange()

	var saved *task.Task
	return run(ctx, newOp(id), func(ctx context.Context) error {
		var err error
		saved, err = b.gw.UpdateTask(ctx, after.Clone())
		return err
	}, func(err error) {
		if err != nil {
			b.opts.logger.Warn("task update failed, rolling back", "task_id", id, "error", err)
			b.settle(id, rev, before, false)
			return
		}
		b.settle(id, rev, *saved, true)
	}), nil
}

// ToggleChecklistItem flips one checklist item on the board and in the
// detail view. Nothing is sent to the server; the task stays dirty until
// SaveTask or SaveChanges stores it.
func (b *Board) ToggleChecklistItem(taskID, itemID string) error {
	if IsPlaceholder(taskID) {
		return ErrPending
	}

	b.mu.Lock()
	i := b.indexLocked(taskID)
	if i < 0 {
		b.mu.Unlock()
		return ErrUnknownTask
	}
	t := b.tasks[i].Clone()
	j := slices.IndexFunc(t.ChecklistItems, func(c task.ChecklistItem) bool { return c.ID == itemID })
	if j < 0 {
		b.mu.Unlock()
		return ErrUnknownChecklistItem
	}
	now := time.Now().UTC()
	t.ChecklistItems[j].Completed = !t.ChecklistItems[j].Completed
	t.ChecklistItems[j].UpdatedAt = now
	t.UpdatedAt = now

	b.tasks[i] = t
	b.bumpLocked(taskID)
	b.dirty[taskID] = true
	b.syncDetailLocked(t)
	b.mu.Unlock()
	b.opts.onChange()
	return nil
}

// Dirty reports whether a task has checklist toggles not yet saved.
func (b *Board) Dirty(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty[id]
}

// SaveChanges stores a dirty task as it is shown on the board. It is idle
// when the task has nothing unsaved.
func (b *Board) SaveChanges(ctx context.Context, id string) (*Op, error) {
	t, ok := b.Task(id)
	if !ok {
		return nil, ErrUnknownTask
	}
	if !b.Dirty(id) {
		return idleOp(id), nil
	}
	return b.SaveTask(ctx, t)
}

// CreateTask shows draft under a placeholder ID until the server answers.
// On success the placeholder is replaced by the server's task; on failure it
// is removed. The Op's ID is the placeholder.
func (b *Board) CreateTask(ctx context.Context, draft task.Task) (*Op, error) {
	now := time.Now().UTC()
	draft = draft.Clone()
	placeholder := PlaceholderPrefix + uuid.NewString()
	draft.ID = placeholder
	if draft.ProjectID == "" {
		draft.ProjectID = b.projectID
	}
	if draft.Status == "" {
		draft.Status = task.StatusTodo
	}
	if draft.Priority == "" {
		draft.Priority = task.PriorityMedium
	}
	draft.CreatedAt, draft.UpdatedAt = now, now
	for i := range draft.ChecklistItems {
		if draft.ChecklistItems[i].ID == "" {
			draft.ChecklistItems[i].ID = PlaceholderPrefix + uuid.NewString()
		}
		draft.ChecklistItems[i].TaskID = placeholder
	}
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.tasks = append(b.tasks, draft)
	rev := b.bumpLocked(placeholder)
	b.mu.Unlock()
	b.opts.onChange()

	var saved *task.Task
	return run(ctx, newOp(placeholder), func(ctx context.Context) error {
		var err error
		saved, err = b.gw.CreateTask(ctx, draft.Clone())
		return err
	}, func(err error) {
		b.mu.Lock()
		i := b.indexLocked(placeholder)
		if err != nil {
			b.opts.logger.Warn("task create failed, removing placeholder", "placeholder", placeholder, "error", err)
			if i >= 0 && b.rev[placeholder] == rev {
				b.tasks = slices.Delete(b.tasks, i, i+1)
			}
		} else {
			b.created[placeholder] = saved.ID
			switch {
			case i >= 0:
				b.tasks[i] = saved.Clone()
			case b.indexLocked(saved.ID) < 0:
				b.tasks = append(b.tasks, saved.Clone())
			}
			b.rev[saved.ID]++
		}
		delete(b.rev, placeholder)
		b.mu.Unlock()
		b.opts.onChange()
	}), nil
}

// DeleteTask removes a task locally and on the server. When the server
// refuses, the board is reloaded because the delete may have partly applied;
// if that reload fails too the task is put back.
func (b *Board) DeleteTask(ctx context.Context, id string) (*Op, error) {
	if IsPlaceholder(id) {
		return nil, ErrPending
	}

	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return nil, ErrUnknownTask
	}
	removed := b.tasks[i].Clone()
	b.tasks = slices.Delete(b.tasks, i, i+1)
	b.bumpLocked(id)
	if b.detail != nil && b.detail.ID == id {
		b.detail = nil
	}
	b.mu.Unlock()
	b.opts.onChange()

	return run(ctx, newOp(id), func(ctx context.Context) error {
		return b.gw.DeleteTask(ctx, id)
	}, func(err error) {
		if err == nil {
			b.mu.Lock()
			delete(b.dirty, id)
			b.mu.Unlock()
			return
		}
		b.opts.logger.Warn("task delete failed, reloading board", "task_id", id, "error", err)
		if loadErr := b.Load(ctx); loadErr != nil {
			b.opts.logger.Warn("reload after failed delete failed", "error", loadErr)
			b.mu.Lock()
			if b.indexLocked(id) < 0 {
				b.tasks = append(b.tasks, removed)
			}
			b.mu.Unlock()
			b.opts.onChange()
		}
	}), nil
}

// settle writes t over task id unless someone changed the task after the
// operation that captured rev. saved means t is what the server now holds.
func (b *Board) settle(id string, rev uint64, t task.Task, saved bool) {
	b.mu.Lock()
	applied := false
	if b.rev[id] == rev {
		if i := b.indexLocked(id); i >= 0 {
			b.tasks[i] = t.Clone()
			b.syncDetailLocked(t)
			applied = true
		}
		if saved {
			delete(b.dirty, id)
		}
	}
	b.mu.Unlock()
	if applied {
		b.opts.onChange()
	}
}

func (b *Board) bumpLocked(id string) uint64 {
	b.rev[id]++
	return b.rev[id]
}

func (b *Board) syncDetailLocked(t task.Task) {
	if b.detail != nil && b.detail.ID == t.ID {
		d := t.Clone()
		b.detail = &d
	}
}

func (b *Board) indexLocked(id string) int {
	return slices.IndexFunc(b.tasks, func(t task.Task) bool { return t.ID == id })
}

package memstore

import (
	"context"
	"time"

	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/repository"
)

// TaskRepository implements task.Repository on a Store.
type TaskRepository struct {
	s *Store
}

func (r *TaskRepository) List(_ context.Context, opts task.ListOptions) ([]task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []task.Task{}
	for _, t := range r.s.tasks {
		if opts.ProjectID != "" && t.ProjectID != opts.ProjectID {
			continue
		}
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		out = append(out, t.Clone())
	}
	sortTasks(out)
	return out, nil
}

func (r *TaskRepository) Get(_ context.Context, id string) (*task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := t.Clone()
	return &c, nil
}

func (r *TaskRepository) Create(_ context.Context, t *task.Task) error {
	return r.s.mutate(func() error {
		if _, ok := r.s.projects[t.ProjectID]; !ok {
			return repository.ErrForeignKeyViolation
		}
		r.s.tasks[t.ID] = t.Clone()
		return nil
	})
}

func (r *TaskRepository) Update(_ context.Context, t *task.Task, replaceChecklist bool) error {
	return r.s.mutate(func() error {
		current, ok := r.s.tasks[t.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if _, ok := r.s.projects[t.ProjectID]; !ok {
			return repository.ErrForeignKeyViolation
		}
		next := t.Clone()
		next.CreatedAt = current.CreatedAt
		if !replaceChecklist {
			next.ChecklistItems = current.Clone().ChecklistItems
		}
		r.s.tasks[t.ID] = next
		return nil
	})
}

func (r *TaskRepository) Delete(_ context.Context, id string) error {
	return r.s.mutate(func() error {
		if _, ok := r.s.tasks[id]; !ok {
			return repository.ErrNotFound
		}
		delete(r.s.tasks, id)
		return nil
	})
}

func (r *TaskRepository) SetChecklistItem(_ context.Context, taskID, itemID string, completed bool) error {
	return r.s.mutate(func() error {
		t, ok := r.s.tasks[taskID]
		if !ok {
			return repository.ErrNotFound
		}
		t = t.Clone()
		for i := range t.ChecklistItems {
			if t.ChecklistItems[i].ID == itemID {
				t.ChecklistItems[i].Completed = completed
				t.ChecklistItems[i].UpdatedAt = time.Now().UTC()
				r.s.tasks[taskID] = t
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

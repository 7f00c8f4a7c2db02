package task

import (
	"context"

	"github.com/rpggio/taskboard/internal/domain/project"
)

// Repository provides persistence for tasks and their checklists.
type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]Task, error)
	Get(ctx context.Context, id string) (*Task, error)
	// Create stores the task and its checklist atomically.
	Create(ctx context.Context, t *Task) error
	// Update stores scalar fields; the checklist is swapped wholesale only
	// when replaceChecklist is set.
	Update(ctx context.Context, t *Task, replaceChecklist bool) error
	Delete(ctx context.Context, id string) error
	SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) error
}

// ProjectRepository resolves the project a task belongs to.
type ProjectRepository interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// Package seed bootstraps an empty store with an example project.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
)

// Store inserts the example data only when no project exists yet. The
// emptiness check and the inserts must happen under the store's own lock or
// transaction.
type Store interface {
	SeedIfEmpty(ctx context.Context, proj *project.Project, t *task.Task) (bool, error)
}

// Example builds the example project and its task.
func Example(now time.Time) (*project.Project, *task.Task) {
	now = now.UTC()
	proj := &project.Project{
		ID:          uuid.NewString(),
		Name:        "Website Redesign",
		Description: "Modernize the company website with a fresh look",
		Logo:        "/project-logo.png",
		IsMain:      true,
		Viewed:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taskID := uuid.NewString()
	t := &task.Task{
		ID:          taskID,
		Title:       "Design Homepage",
		Description: "Create a modern and user-friendly homepage design",
		Status:      task.StatusTodo,
		Priority:    task.PriorityHigh,
		ProjectID:   proj.ID,
		ChecklistItems: []task.ChecklistItem{
			{ID: uuid.NewString(), Title: "Create wireframe", Completed: true, TaskID: taskID, CreatedAt: now, UpdatedAt: now},
			{ID: uuid.NewString(), Title: "Design UI components", Completed: false, TaskID: taskID, CreatedAt: now, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	proj.TaskCount = 1
	return proj, t
}

// Run seeds store if it is empty and reports whether anything was written.
// Running it again, from any process, is a no-op.
func Run(ctx context.Context, store Store, logger *slog.Logger) (bool, error) {
	proj, t := Example(time.Now())
	seeded, err := store.SeedIfEmpty(ctx, proj, t)
	if err != nil {
		return false, fmt.Errorf("seeding example project: %w", err)
	}
	if seeded && logger != nil {
		logger.Info("seeded example project", "project_id", proj.ID, "task_id", t.ID)
	}
	return seeded, nil
}

package board

import (
	"context"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
)

// TaskGateway persists tasks. client.Client implements it over REST.
type TaskGateway interface {
	ListTasks(ctx context.Context, projectID string) ([]task.Task, error)
	CreateTask(ctx context.Context, t task.Task) (*task.Task, error)
	UpdateTask(ctx context.Context, t task.Task) (*task.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// ProjectGateway persists projects.
type ProjectGateway interface {
	ListProjects(ctx context.Context) ([]project.Project, error)
	CreateProject(ctx context.Context, p project.Project) (*project.Project, error)
	UpdateProject(ctx context.Context, p project.Project) (*project.Project, error)
	DeleteProject(ctx context.Context, id string) error
	SetMainProject(ctx context.Context, id string) (*project.Project, error)
}

// Gateway is everything the view-models need from the server.
type Gateway interface {
	TaskGateway
	ProjectGateway
}

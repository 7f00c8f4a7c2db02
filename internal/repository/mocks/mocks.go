package mocks

import (
	"context"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) SetMain(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TaskRepository is a mock for task.Repository.
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) List(ctx context.Context, opts task.ListOptions) ([]task.Task, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]task.Task); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*task.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TaskRepository) Update(ctx context.Context, t *task.Task, replaceChecklist bool) error {
	args := m.Called(ctx, t, replaceChecklist)
	return args.Error(0)
}

func (m *TaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) error {
	args := m.Called(ctx, taskID, itemID, completed)
	return args.Error(0)
}

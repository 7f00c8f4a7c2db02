package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/rpggio/taskboard/internal/retry"
	"github.com/rpggio/taskboard/internal/validation"
)

// Service handles task business logic.
type Service struct {
	repo     Repository
	projects ProjectRepository
	policy   retry.Policy
	logger   *slog.Logger
}

// NewService creates a new task service. Writes and listings go through
// policy; lookups, validation failures, and missing entities are never retried.
func NewService(repo Repository, projects ProjectRepository, policy retry.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if policy.Retryable == nil {
		policy.Retryable = Transient
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Service{repo: repo, projects: projects, policy: policy, logger: logger}
}

// Transient reports whether a store error may succeed on another attempt.
func Transient(err error) bool {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrForeignKeyViolation),
		errors.Is(err, repository.ErrCorruptData),
		errors.Is(err, validation.ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// ChecklistItemInput is a checklist entry supplied by a caller. ID is kept
// only when it names an item the task already has.
type ChecklistItemInput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts the label as "title" or "text".
func (in *ChecklistItemInput) UnmarshalJSON(data []byte) error {
	var item ChecklistItem
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*in = ChecklistItemInput{ID: item.ID, Title: item.Title, Completed: item.Completed}
	return nil
}

// CreateRequest describes a task creation request.
type CreateRequest struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Status         Status               `json:"status"`
	Priority       Priority             `json:"priority"`
	ProjectID      string               `json:"projectId"`
	PlannedDate    *time.Time           `json:"plannedDate"`
	ChecklistItems []ChecklistItemInput `json:"checklistItems"`
}

// SaveRequest is a full task for Save. An empty or unknown ID creates.
type SaveRequest struct {
	ID string `json:"id"`
	CreateRequest
}

// UpdateRequest patches a task. Nil fields are left unchanged; the checklist
// is replaced only when ReplaceChecklist is set.
type UpdateRequest struct {
	ID               string
	Title            *string
	Description      *string
	Status           *Status
	Priority         *Priority
	ProjectID        *string
	PlannedDate      *time.Time
	ClearPlannedDate bool
	ChecklistItems   []ChecklistItemInput
	ReplaceChecklist bool
}

// List returns tasks matching opts in creation order.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Task, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, validation.Invalid("status", "status must be one of TODO IN_PROGRESS DONE")
	}
	tasks, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]Task, error) {
		return s.repo.List(ctx, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// Get fetches a task with its checklist.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validation.Required("id")
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// Create validates and stores a new task with its checklist.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	return s.create(ctx, uuid.NewString(), req)
}

// Update applies a partial update to an existing task.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Task, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.Priority != nil {
		updated.Priority = *req.Priority
	}
	if req.ProjectID != nil {
		updated.ProjectID = *req.ProjectID
	}
	if req.ClearPlannedDate {
		updated.PlannedDate = nil
	} else if req.PlannedDate != nil {
		d := *req.PlannedDate
		updated.PlannedDate = &d
	}

	now := time.Now().UTC()
	if req.ReplaceChecklist {
		updated.ChecklistItems = buildChecklist(updated.ID, req.ChecklistItems, current.ChecklistItems, now)
	}
	updated.UpdatedAt = now

	return s.store(ctx, current, &updated, req.ReplaceChecklist)
}

// Save creates the task when its ID is empty or unknown and replaces every
// field, checklist included, otherwise.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Task, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return s.Create(ctx, req.CreateRequest)
	}

	current, err := s.repo.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.create(ctx, id, req.CreateRequest)
	case err != nil:
		return nil, fmt.Errorf("getting task: %w", err)
	}

	now := time.Now().UTC()
	updated := Task{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		ProjectID:      req.ProjectID,
		PlannedDate:    req.PlannedDate,
		ChecklistItems: buildChecklist(id, req.ChecklistItems, current.ChecklistItems, now),
		CreatedAt:      current.CreatedAt,
		UpdatedAt:      now,
	}
	applyDefaults(&updated)
	return s.store(ctx, current, &updated, true)
}

// Move changes only the task's status.
func (s *Service) Move(ctx context.Context, id string, status Status) (*Task, error) {
	return s.Update(ctx, UpdateRequest{ID: id, Status: &status})
}

// Delete removes a task and its checklist.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validation.Required("id")
	}
	_, err := retry.Do(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("deleting task: %w", err)
	}
	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// SetChecklistItem sets the completion flag of one checklist item and returns
// the updated task.
func (s *Service) SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) (*Task, error) {
	t, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range t.ChecklistItems {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrChecklistItemNotFound
	}

	_, err = retry.Do(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.SetChecklistItem(ctx, taskID, itemID, completed)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChecklistItemNotFound
		}
		return nil, fmt.Errorf("updating checklist item: %w", err)
	}

	t.ChecklistItems[idx].Completed = completed
	t.ChecklistItems[idx].UpdatedAt = time.Now().UTC()
	return t, nil
}

// Summary counts a project's tasks per status.
func (s *Service) Summary(ctx context.Context, projectID string) (Summary, error) {
	if err := s.requireProject(ctx, projectID); err != nil {
		return Summary{}, err
	}
	tasks, err := s.List(ctx, ListOptions{ProjectID: projectID})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(projectID, tasks), nil
}

func (s *Service) create(ctx context.Context, id string, req CreateRequest) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		ProjectID:      req.ProjectID,
		PlannedDate:    req.PlannedDate,
		ChecklistItems: buildChecklist(id, req.ChecklistItems, nil, now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyDefaults(t)

	if err := validation.Struct(t); err != nil {
		return nil, err
	}
	if err := s.requireProject(ctx, t.ProjectID); err != nil {
		return nil, err
	}

	_, err := retry.Do(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	s.logger.Debug("task created", "task_id", t.ID, "project_id", t.ProjectID)
	return t, nil
}

func (s *Service) store(ctx context.Context, current, updated *Task, replaceChecklist bool) (*Task, error) {
	if err := validation.Struct(updated); err != nil {
		return nil, err
	}
	if updated.ProjectID != current.ProjectID {
		if err := s.requireProject(ctx, updated.ProjectID); err != nil {
			return nil, err
		}
	}

	_, err := retry.Do(ctx, s.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Update(ctx, updated, replaceChecklist)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return updated, nil
}

func (s *Service) requireProject(ctx context.Context, projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return validation.Required("projectId")
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validation.Invalid("projectId", "project %s does not exist", projectID)
		}
		return fmt.Errorf("getting project: %w", err)
	}
	return nil
}

func applyDefaults(t *Task) {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// buildChecklist turns caller input into stored items, keeping IDs that match
// an item in existing.
func buildChecklist(taskID string, in []ChecklistItemInput, existing []ChecklistItem, now time.Time) []ChecklistItem {
	known := make(map[string]ChecklistItem, len(existing))
	for _, item := range existing {
		known[item.ID] = item
	}

	items := make([]ChecklistItem, 0, len(in))
	for _, input := range in {
		item := ChecklistItem{
			ID:        uuid.NewString(),
			Title:     strings.TrimSpace(input.Title),
			Completed: input.Completed,
			TaskID:    taskID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if prev, ok := known[input.ID]; ok && input.ID != "" {
			item.ID = prev.ID
			item.CreatedAt = prev.CreatedAt
			delete(known, input.ID)
		}
		items = append(items, item)
	}
	return items
}

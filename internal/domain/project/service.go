package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/taskboard/internal/repository"
	"github.com/rpggio/taskboard/internal/validation"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name        string `json:"name" validate:"nonblank"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	IsMain      bool   `json:"isMain"`
	Viewed      bool   `json:"viewed"`
}

// UpdateRequest patches a project. Nil fields are left unchanged.
type UpdateRequest struct {
	ID          string
	Name        *string
	Description *string
	Logo        *string
	IsMain      *bool
	Viewed      *bool
}

// SaveRequest carries a full project for Save.
type SaveRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"nonblank"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	IsMain      bool   `json:"isMain"`
	Viewed      bool   `json:"viewed"`
}

// List returns all projects with their task counts.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validation.Required("id")
	}
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// Create creates a new project with a server-issued ID.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.insert(ctx, &Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Logo:        req.Logo,
		IsMain:      req.IsMain,
		Viewed:      req.Viewed,
	})
}

// Update applies a partial update to an existing project.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Project, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, validation.Required("name")
		}
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Logo != nil {
		updated.Logo = *req.Logo
	}
	if req.IsMain != nil {
		updated.IsMain = *req.IsMain
	}
	if req.Viewed != nil {
		updated.Viewed = *req.Viewed
	}

	return s.replace(ctx, &updated, current.IsMain)
}

// Save creates the project when its ID is empty or unknown and replaces it
// otherwise.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Project, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	proj := &Project{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Logo:        req.Logo,
		IsMain:      req.IsMain,
		Viewed:      req.Viewed,
	}
	if proj.ID == "" {
		proj.ID = uuid.NewString()
		return s.insert(ctx, proj)
	}

	current, err := s.repo.Get(ctx, proj.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.insert(ctx, proj)
	case err != nil:
		return nil, fmt.Errorf("getting project: %w", err)
	}
	proj.CreatedAt = current.CreatedAt
	proj.TaskCount = current.TaskCount
	return s.replace(ctx, proj, current.IsMain)
}

// Delete removes a project and everything it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return validation.Required("id")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// SetMain marks id as the only main project.
func (s *Service) SetMain(ctx context.Context, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validation.Required("id")
	}
	if err := s.repo.SetMain(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("setting main project: %w", err)
	}
	s.logger.Info("main project changed", "project_id", id)
	return s.Get(ctx, id)
}

func (s *Service) insert(ctx context.Context, proj *Project) (*Project, error) {
	if proj.Logo == "" {
		proj.Logo = DefaultLogo
	}
	now := time.Now().UTC()
	proj.CreatedAt = now
	proj.UpdatedAt = now

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.logger.Debug("project created", "project_id", proj.ID)
	return proj, nil
}

func (s *Service) replace(ctx context.Context, proj *Project, wasMain bool) (*Project, error) {
	if proj.Logo == "" {
		proj.Logo = DefaultLogo
	}
	proj.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	if proj.IsMain && !wasMain {
		s.logger.Info("main project changed", "project_id", proj.ID)
	}
	return proj, nil
}

package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	// List returns every project with TaskCount filled in.
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	// Create and Update clear the main flag on every other project in the
	// same step when proj.IsMain is set.
	Create(ctx context.Context, proj *Project) error
	Update(ctx context.Context, proj *Project) error
	// Delete removes the project together with its tasks and checklists.
	Delete(ctx context.Context, id string) error
	// SetMain clears the flag on every project and sets it on id in one step.
	SetMain(ctx context.Context, id string) error
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/repository"
)

// ProjectRepository implements project.Repository over SQL.
type ProjectRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB, logger *slog.Logger) *ProjectRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectRepository{db: db, logger: logger}
}

type projectRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Logo        string    `db:"logo"`
	IsMain      bool      `db:"is_main"`
	Viewed      bool      `db:"viewed"`
	CreatedAt   timestamp `db:"created_at"`
	UpdatedAt   timestamp `db:"updated_at"`
	TaskCount   int       `db:"task_count"`
}

func (r projectRow) toProject() (project.Project, error) {
	p := project.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Logo:        r.Logo,
		IsMain:      r.IsMain,
		Viewed:      r.Viewed,
		TaskCount:   r.TaskCount,
	}
	var err error
	if p.CreatedAt, err = r.CreatedAt.value("created_at"); err != nil {
		return p, fmt.Errorf("project %s: %w", r.ID, err)
	}
	if p.UpdatedAt, err = r.UpdatedAt.value("updated_at"); err != nil {
		return p, fmt.Errorf("project %s: %w", r.ID, err)
	}
	return p, nil
}

const projectColumns = `
	p.id, p.name, p.description, p.logo, p.is_main, p.viewed, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count`

// List returns all projects, oldest first, with task counts. Rows that fail
// to decode are skipped and logged.
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	var rows []projectRow
	query := `SELECT ` + projectColumns + ` FROM projects p ORDER BY p.created_at ASC, p.id ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, storeError("list projects", err)
	}

	projects := make([]project.Project, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProject()
		if err != nil {
			r.logger.Warn("skipping unreadable project", "project_id", row.ID, "error", err)
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	var row projectRow
	query := r.db.Rebind(`SELECT ` + projectColumns + ` FROM projects p WHERE p.id = ?`)
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, storeError("get project", err)
	}

	proj, err := row.toProject()
	if err != nil {
		return nil, err
	}
	return &proj, nil
}

// Create inserts a new project. A main project takes the flag from any other
// project in the same transaction.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	if !proj.IsMain {
		return insertProject(ctx, r.db, proj)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := clearMain(ctx, tx, proj.ID); err != nil {
		return err
	}
	if err := insertProject(ctx, tx, proj); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// Update replaces every mutable column of a project, clearing is_main on the
// others in the same transaction when proj.IsMain is set.
func (r *ProjectRepository) Update(ctx context.Context, proj *project.Project) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	if proj.IsMain {
		if err := clearMain(ctx, tx, proj.ID); err != nil {
			return err
		}
	}

	query := tx.Rebind(`
		UPDATE projects
		SET name = ?, description = ?, logo = ?, is_main = ?, viewed = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := tx.ExecContext(ctx, query,
		proj.Name,
		proj.Description,
		proj.Logo,
		proj.IsMain,
		proj.Viewed,
		proj.UpdatedAt.UTC(),
		proj.ID,
	)
	if err != nil {
		return storeError("update project", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

func clearMain(ctx context.Context, tx *sqlx.Tx, keep string) error {
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE projects SET is_main = ? WHERE is_main = ? AND id <> ?`), false, true, keep,
	); err != nil {
		return storeError("clear main project", err)
	}
	return nil
}

// Delete removes a project, its tasks and their checklist items in one
// transaction.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	steps := []string{
		`DELETE FROM checklist_items WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`,
		`DELETE FROM tasks WHERE project_id = ?`,
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, tx.Rebind(step), id); err != nil {
			return storeError("delete project children", err)
		}
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return storeError("delete project", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// SetMain clears is_main everywhere and sets it on one project atomically
func (r *ProjectRepository) SetMain(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE projects SET is_main = ? WHERE is_main = ?`), false, true,
	); err != nil {
		return storeError("clear main project", err)
	}

	result, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE projects SET is_main = ?, updated_at = ? WHERE id = ?`), true, now(), id,
	)
	if err != nil {
		return storeError("set main project", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func insertProject(ctx context.Context, ex sqlx.ExtContext, proj *project.Project) error {
	query := ex.Rebind(`
		INSERT INTO projects (id, name, description, logo, is_main, viewed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := ex.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Description,
		proj.Logo,
		proj.IsMain,
		proj.Viewed,
		proj.CreatedAt.UTC(),
		proj.UpdatedAt.UTC(),
	)
	if err != nil {
		return storeError("create project", err)
	}
	return nil
}

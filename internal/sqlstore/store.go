package sqlstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
)

// Store bundles the SQL repositories over one connection.
type Store struct {
	db       *DB
	projects *ProjectRepository
	tasks    *TaskRepository
}

// Open connects to the database, applies migrations and returns a Store.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := New(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db, logger), nil
}

// NewStore wraps an already migrated database.
func NewStore(db *DB, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		projects: NewProjectRepository(db, logger),
		tasks:    NewTaskRepository(db, logger),
	}
}

func (s *Store) Projects() project.Repository { return s.projects }

func (s *Store) Tasks() task.Repository { return s.tasks }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeError("ping database", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SeedIfEmpty inserts proj and t in one transaction when the projects table
// is empty.
func (s *Store) SeedIfEmpty(ctx context.Context, proj *project.Project, t *task.Task) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, storeError("begin transaction", err)
	}
	defer tx.Rollback()

	if s.db.Driver() == DriverPostgres {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE projects IN EXCLUSIVE MODE`); err != nil {
			return false, storeError("lock projects", err)
		}
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM projects`); err != nil {
		return false, storeError("count projects", err)
	}
	if count > 0 {
		return false, nil
	}

	if err := insertProject(ctx, tx, proj); err != nil {
		return false, err
	}
	if err := insertTask(ctx, tx, t); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, storeError("commit transaction", err)
	}
	return true, nil
}

func now() time.Time {
	return time.Now().UTC()
}

// Package storage opens the persistence backend named in the configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/taskboard/internal/config"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/filestore"
	"github.com/rpggio/taskboard/internal/memstore"
	"github.com/rpggio/taskboard/internal/seed"
	"github.com/rpggio/taskboard/internal/sqlstore"
)

// Store is the surface every backend provides.
type Store interface {
	Projects() project.Repository
	Tasks() task.Repository
	seed.Store
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*sqlstore.Store)(nil)
	_ Store = (*memstore.Store)(nil)
	_ Store = (*filestore.Store)(nil)
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if err := ensureDBDir(cfg.DSN); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.DSN, logger)
	case config.DriverPostgres:
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.DSN, logger)
	case config.DriverFile:
		return filestore.Open(cfg.Dir, logger)
	case config.DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func ensureDBDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

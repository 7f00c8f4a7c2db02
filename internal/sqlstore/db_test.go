package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a migrated in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(DriverSQLite, ":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations(context.Background())
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	for _, table := range []string{"projects", "tasks", "checklist_items", "schema_version"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(migrations), version)
}

func TestMigrations_RerunIsNoop(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RunMigrations(ctx))

	var rows int
	require.NoError(t, db.GetContext(ctx, &rows, "SELECT COUNT(*) FROM schema_version"))
	require.Equal(t, len(migrations), rows)
}

func TestMigrations_PlannedDateColumn(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('tasks') WHERE name = 'planned_date'").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New("mysql", "whatever")
	require.Error(t, err)
}

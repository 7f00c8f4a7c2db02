package sqlstore

// migration is one schema step. Statements use DDL understood by both SQLite
// and PostgreSQL.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				logo TEXT NOT NULL DEFAULT '/default-logo.png',
				is_main BOOLEAN NOT NULL DEFAULT FALSE,
				viewed BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE tasks (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'TODO',
				priority TEXT NOT NULL DEFAULT 'MEDIUM',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX idx_tasks_project ON tasks(project_id)`,
			`CREATE INDEX idx_tasks_status ON tasks(status)`,
			`CREATE TABLE checklist_items (
				id TEXT PRIMARY KEY,
				task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				position INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX idx_checklist_task ON checklist_items(task_id)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`ALTER TABLE tasks ADD COLUMN planned_date TIMESTAMP`,
		},
	},
}

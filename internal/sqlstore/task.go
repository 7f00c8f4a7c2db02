package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/repository"
)

// TaskRepository implements task.Repository over SQL.
type TaskRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB, logger *slog.Logger) *TaskRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TaskRepository{db: db, logger: logger}
}

type taskRow struct {
	ID          string    `db:"id"`
	ProjectID   string    `db:"project_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	Priority    string    `db:"priority"`
	PlannedDate timestamp `db:"planned_date"`
	CreatedAt   timestamp `db:"created_at"`
	UpdatedAt   timestamp `db:"updated_at"`
}

type checklistRow struct {
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	Title     string    `db:"title"`
	Completed bool      `db:"completed"`
	Position  int       `db:"position"`
	CreatedAt timestamp `db:"created_at"`
	UpdatedAt timestamp `db:"updated_at"`
}

// toTask converts a row, rejecting values outside the status and priority
// enums and timestamps that do not parse.
func (r taskRow) toTask() (task.Task, error) {
	t := task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      task.Status(r.Status),
		Priority:    task.Priority(r.Priority),
		ProjectID:   r.ProjectID,
	}
	if !t.Status.Valid() {
		return t, fmt.Errorf("task %s has status %q: %w", r.ID, r.Status, repository.ErrCorruptData)
	}
	if !t.Priority.Valid() {
		return t, fmt.Errorf("task %s has priority %q: %w", r.ID, r.Priority, repository.ErrCorruptData)
	}
	var err error
	if t.CreatedAt, err = r.CreatedAt.value("created_at"); err != nil {
		return t, fmt.Errorf("task %s: %w", r.ID, err)
	}
	if t.UpdatedAt, err = r.UpdatedAt.value("updated_at"); err != nil {
		return t, fmt.Errorf("task %s: %w", r.ID, err)
	}
	if t.PlannedDate, err = r.PlannedDate.optional("planned_date"); err != nil {
		return t, fmt.Errorf("task %s: %w", r.ID, err)
	}
	t.ChecklistItems = []task.ChecklistItem{}
	return t, nil
}

func (r checklistRow) toItem() (task.ChecklistItem, error) {
	item := task.ChecklistItem{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		TaskID:    r.TaskID,
	}
	var err error
	if item.CreatedAt, err = r.CreatedAt.value("created_at"); err != nil {
		return item, fmt.Errorf("checklist item %s: %w", r.ID, err)
	}
	if item.UpdatedAt, err = r.UpdatedAt.value("updated_at"); err != nil {
		return item, fmt.Errorf("checklist item %s: %w", r.ID, err)
	}
	return item, nil
}

const taskColumns = `id, project_id, title, description, status, priority, planned_date, created_at, updated_at`

// List returns tasks matching opts with their checklists. Rows that fail to
// decode are skipped and logged.
func (r *TaskRepository) List(ctx context.Context, opts task.ListOptions) ([]task.Task, error) {
	var (
		conditions []string
		args       []any
	)
	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(opts.Status))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, storeError("list tasks", err)
	}
	if len(rows) == 0 {
		return []task.Task{}, nil
	}

	tasks := make([]task.Task, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTask()
		if err != nil {
			r.logger.Warn("skipping unreadable task", "task_id", row.ID, "error", err)
			continue
		}
		tasks = append(tasks, t)
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		return tasks, nil
	}

	items, err := r.checklists(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if list, ok := items[tasks[i].ID]; ok {
			tasks[i].ChecklistItems = list
		}
	}
	return tasks, nil
}

// Get retrieves a task with its checklist
func (r *TaskRepository) Get(ctx context.Context, id string) (*task.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, storeError("get task", err)
	}

	t, err := row.toTask()
	if err != nil {
		return nil, err
	}

	items, err := r.checklists(ctx, r.db, []string{id})
	if err != nil {
		return nil, err
	}
	if list, ok := items[id]; ok {
		t.ChecklistItems = list
	}
	return &t, nil
}

// Create inserts a task and its checklist in one transaction
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := insertTask(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// Update writes the task's columns and, when replaceChecklist is set, swaps
// its checklist for t.ChecklistItems.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task, replaceChecklist bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE tasks
		SET project_id = ?, title = ?, description = ?, status = ?, priority = ?, planned_date = ?, updated_at = ?
		WHERE id = ?
	`),
		t.ProjectID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		nullTime(t.PlannedDate),
		t.UpdatedAt.UTC(),
		t.ID,
	)
	if err != nil {
		return storeError("update task", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if replaceChecklist {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM checklist_items WHERE task_id = ?`), t.ID); err != nil {
			return storeError("clear checklist", err)
		}
		if err := insertChecklist(ctx, tx, t.ID, t.ChecklistItems); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// Delete removes the checklist and then the task
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM checklist_items WHERE task_id = ?`), id); err != nil {
		return storeError("delete checklist", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return storeError("delete task", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// SetChecklistItem updates one item's completion flag
func (r *TaskRepository) SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE checklist_items SET completed = ?, updated_at = ? WHERE id = ? AND task_id = ?`),
		completed, now(), itemID, taskID,
	)
	if err != nil {
		return storeError("update checklist item", err)
	}
	return requireAffected(result)
}

// checklists loads the items of every task in ids, keyed by task ID and kept
// in insertion order.
func (r *TaskRepository) checklists(ctx context.Context, q sqlx.QueryerContext, ids []string) (map[string][]task.ChecklistItem, error) {
	query, args, err := sqlx.In(`
		SELECT id, task_id, title, completed, position, created_at, updated_at
		FROM checklist_items
		WHERE task_id IN (?)
		ORDER BY task_id, position ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build checklist query: %w", err)
	}

	var rows []checklistRow
	if err := sqlx.SelectContext(ctx, q, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, storeError("list checklist items", err)
	}

	out := make(map[string][]task.ChecklistItem, len(ids))
	for _, row := range rows {
		item, err := row.toItem()
		if err != nil {
			r.logger.Warn("skipping unreadable checklist item", "task_id", row.TaskID, "item_id", row.ID, "error", err)
			continue
		}
		out[row.TaskID] = append(out[row.TaskID], item)
	}
	return out, nil
}

func insertTask(ctx context.Context, ex sqlx.ExtContext, t *task.Task) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO tasks (id, project_id, title, description, status, priority, planned_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		t.ID,
		t.ProjectID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		nullTime(t.PlannedDate),
		t.CreatedAt.UTC(),
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		return storeError("create task", err)
	}
	return insertChecklist(ctx, ex, t.ID, t.ChecklistItems)
}

func insertChecklist(ctx context.Context, tx sqlx.ExtContext, taskID string, items []task.ChecklistItem) error {
	query := tx.Rebind(`
		INSERT INTO checklist_items (id, task_id, title, completed, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, query,
			item.ID,
			taskID,
			item.Title,
			item.Completed,
			i,
			item.CreatedAt.UTC(),
			item.UpdatedAt.UTC(),
		); err != nil {
			return storeError("insert checklist item", err)
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Package forms assembles the drafts edited in the task and project forms.
// A draft only checks that it has a title or name; everything else is left
// to the board and the server.
package forms

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/taskboard/internal/board"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

// ChecklistItemDraft is one checklist line in a task form. Text is the only
// label; it is written to the task as the item title.
type ChecklistItemDraft struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"nonblank"`
	Completed bool   `json:"completed"`
}

// TaskDraft collects the fields of a task being created or edited.
type TaskDraft struct {
	ID             string               `json:"id"`
	Title          string               `json:"title" validate:"nonblank"`
	Description    string               `json:"description"`
	Status         task.Status          `json:"status"`
	Priority       task.Priority        `json:"priority"`
	ProjectID      string               `json:"projectId"`
	PlannedDate    *time.Time           `json:"plannedDate"`
	ChecklistItems []ChecklistItemDraft `json:"checklistItems" validate:"dive"`

	createdAt time.Time
}

// NewTaskDraft starts an empty draft for a new task in projectID.
func NewTaskDraft(projectID string) *TaskDraft {
	return &TaskDraft{
		Status:    task.StatusTodo,
		Priority:  task.PriorityMedium,
		ProjectID: projectID,
	}
}

// FromTask starts an edit draft holding a copy of t.
func FromTask(t task.Task) *TaskDraft {
	d := &TaskDraft{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		ProjectID:   t.ProjectID,
		createdAt:   t.CreatedAt,
	}
	if t.PlannedDate != nil {
		pd := *t.PlannedDate
		d.PlannedDate = &pd
	}
	for _, item := range t.ChecklistItems {
		d.ChecklistItems = append(d.ChecklistItems, ChecklistItemDraft{
			ID:        item.ID,
			Text:      item.Title,
			Completed: item.Completed,
		})
	}
	return d
}

// IsNew reports whether the draft creates a task.
func (d *TaskDraft) IsNew() bool { return d.ID == "" }

func (d *TaskDraft) SetTitle(title string)             { d.Title = title }
func (d *TaskDraft) SetDescription(description string) { d.Description = description }
func (d *TaskDraft) SetStatus(status task.Status)      { d.Status = status }
func (d *TaskDraft) SetPriority(priority task.Priority) {
	d.Priority = priority
}

// SetPlannedDate sets the planned date; nil clears it.
func (d *TaskDraft) SetPlannedDate(date *time.Time) {
	if date == nil {
		d.PlannedDate = nil
		return
	}
	pd := date.UTC()
	d.PlannedDate = &pd
}

// AddChecklistItem appends an unchecked item and returns its draft ID.
// Blank text is ignored and returns "".
func (d *TaskDraft) AddChecklistItem(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	id := board.PlaceholderPrefix + uuid.NewString()
	d.ChecklistItems = append(d.ChecklistItems, ChecklistItemDraft{ID: id, Text: text})
	return id
}

// RemoveChecklistItem drops the item with id. It reports whether it existed.
func (d *TaskDraft) RemoveChecklistItem(id string) bool {
	n := len(d.ChecklistItems)
	d.ChecklistItems = slices.DeleteFunc(d.ChecklistItems, func(c ChecklistItemDraft) bool { return c.ID == id })
	return len(d.ChecklistItems) != n
}

// SetChecklistText relabels one item.
func (d *TaskDraft) SetChecklistText(id, text string) bool {
	if i := d.itemIndex(id); i >= 0 {
		d.ChecklistItems[i].Text = text
		return true
	}
	return false
}

// ToggleChecklistItem flips one item. The change stays in the draft until
// it is saved.
func (d *TaskDraft) ToggleChecklistItem(id string) bool {
	if i := d.itemIndex(id); i >= 0 {
		d.ChecklistItems[i].Completed = !d.ChecklistItems[i].Completed
		return true
	}
	return false
}

// Progress is the completion percentage the saved task will show.
func (d *TaskDraft) Progress() int {
	return d.Task().Progress()
}

// Validate reports the first field that blocks saving.
func (d *TaskDraft) Validate() error {
	return validation.Struct(d)
}

// CanSave reports whether the save action should be enabled.
func (d *TaskDraft) CanSave() bool {
	return d.Validate() == nil
}

// Task builds the entity handed to the board. Text is trimmed and empty
// status or priority take their defaults.
func (d *TaskDraft) Task() task.Task {
	t := task.Task{
		ID:          d.ID,
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Status:      d.Status,
		Priority:    d.Priority,
		ProjectID:   d.ProjectID,
		CreatedAt:   d.createdAt,
	}
	if t.Status == "" {
		t.Status = task.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if d.PlannedDate != nil {
		pd := *d.PlannedDate
		t.PlannedDate = &pd
	}
	t.ChecklistItems = make([]task.ChecklistItem, 0, len(d.ChecklistItems))
	for _, item := range d.ChecklistItems {
		t.ChecklistItems = append(t.ChecklistItems, task.ChecklistItem{
			ID:        item.ID,
			Title:     strings.TrimSpace(item.Text),
			Completed: item.Completed,
			TaskID:    d.ID,
		})
	}
	return t
}

func (d *TaskDraft) itemIndex(id string) int {
	return slices.IndexFunc(d.ChecklistItems, func(c ChecklistItemDraft) bool { return c.ID == id })
}

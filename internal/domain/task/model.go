package task

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the board columns in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s is one of the three board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label is the column heading.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// UnmarshalJSON accepts any letter case ("in_progress" reads as IN_PROGRESS).
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Status(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// UnmarshalJSON accepts any letter case ("medium" reads as MEDIUM).
func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Priority(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// ChecklistItem is a labelled sub-step of a task.
type ChecklistItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"nonblank"`
	Completed bool      `json:"completed"`
	TaskID    string    `json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type checklistItemJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	TaskID    string    `json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON writes the label under both "title" and "text"; existing web
// clients read either.
func (c ChecklistItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(checklistItemJSON{
		ID:        c.ID,
		Title:     c.Title,
		Text:      c.Title,
		Completed: c.Completed,
		TaskID:    c.TaskID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
}

// UnmarshalJSON reads the label from "title", falling back to "text".
func (c *ChecklistItem) UnmarshalJSON(data []byte) error {
	var raw checklistItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ChecklistItem{
		ID:        raw.ID,
		Title:     raw.Title,
		Completed: raw.Completed,
		TaskID:    raw.TaskID,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	if c.Title == "" {
		c.Title = raw.Text
	}
	return nil
}

// Task is a unit of work on a project board.
type Task struct {
	ID             string          `json:"id"`
	Title          string          `json:"title" validate:"nonblank"`
	Description    string          `json:"description"`
	Status         Status          `json:"status" validate:"oneof=TODO IN_PROGRESS DONE"`
	Priority       Priority        `json:"priority" validate:"oneof=LOW MEDIUM HIGH"`
	ProjectID      string          `json:"projectId" validate:"nonblank"`
	PlannedDate    *time.Time      `json:"plannedDate"`
	ChecklistItems []ChecklistItem `json:"checklistItems" validate:"dive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate it freely.
func (t Task) Clone() Task {
	out := t
	if t.PlannedDate != nil {
		d := *t.PlannedDate
		out.PlannedDate = &d
	}
	out.ChecklistItems = make([]ChecklistItem, len(t.ChecklistItems))
	copy(out.ChecklistItems, t.ChecklistItems)
	return out
}

// Progress is the rounded percentage of completed checklist items, 0 when
// the checklist is empty.
func (t Task) Progress() int {
	total := len(t.ChecklistItems)
	if total == 0 {
		return 0
	}
	done := 0
	for _, item := range t.ChecklistItems {
		if item.Completed {
			done++
		}
	}
	p := int(math.Round(float64(done) / float64(total) * 100))
	return min(max(p, 0), 100)
}

// Summary counts a project's tasks per board column.
type Summary struct {
	ProjectID  string `json:"projectId"`
	Todo       int    `json:"todo"`
	InProgress int    `json:"inProgress"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
	Progress   int    `json:"progress"`
}

// Summarize counts tasks by status. Progress is the share of DONE tasks.
func Summarize(projectID string, tasks []Task) Summary {
	s := Summary{ProjectID: projectID}
	for _, t := range tasks {
		switch t.Status {
		case StatusTodo:
			s.Todo++
		case StatusInProgress:
			s.InProgress++
		case StatusDone:
			s.Done++
		}
		s.Total++
	}
	if s.Total > 0 {
		s.Progress = int(math.Round(float64(s.Done) / float64(s.Total) * 100))
	}
	return s
}

// ParseDate reads a planned date written as an RFC 3339 timestamp or as a
// bare YYYY-MM-DD day.
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if d, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return d.UTC(), nil
	}
	return time.Parse(time.DateOnly, text)
}

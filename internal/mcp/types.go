package mcp

type IDParams struct {
	ID string `json:"id" jsonschema:"entity identifier"`
}

type ListProjectsParams struct{}

type CreateProjectParams struct {
	Name        string `json:"name" jsonschema:"project display name"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty" jsonschema:"logo URL or path; defaults to /default-logo.png"`
	IsMain      bool   `json:"is_main,omitempty" jsonschema:"make this the single main project"`
}

type SaveProjectParams struct {
	ID          string `json:"id,omitempty" jsonschema:"project ID; omitted or unknown IDs create a project"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	IsMain      bool   `json:"is_main,omitempty"`
	Viewed      bool   `json:"viewed,omitempty"`
}

type ProjectStatsParams struct {
	ProjectID string `json:"project_id"`
}

type ListTasksParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"only tasks of this project"`
	Status    string `json:"status,omitempty" jsonschema:"TODO, IN_PROGRESS or DONE"`
}

type ChecklistItemParams struct {
	ID        string `json:"id,omitempty" jsonschema:"existing item ID to keep"`
	Title     string `json:"title"`
	Completed bool   `json:"completed,omitempty"`
}

type CreateTaskParams struct {
	ProjectID      string                `json:"project_id"`
	Title          string                `json:"title"`
	Description    string                `json:"description,omitempty"`
	Status         string                `json:"status,omitempty" jsonschema:"TODO, IN_PROGRESS or DONE; defaults to TODO"`
	Priority       string                `json:"priority,omitempty" jsonschema:"LOW, MEDIUM or HIGH; defaults to MEDIUM"`
	PlannedDate    string                `json:"planned_date,omitempty" jsonschema:"YYYY-MM-DD or RFC 3339 timestamp"`
	ChecklistItems []ChecklistItemParams `json:"checklist_items,omitempty"`
}

type SaveTaskParams struct {
	ID             string                `json:"id,omitempty" jsonschema:"task ID; omitted or unknown IDs create a task"`
	ProjectID      string                `json:"project_id"`
	Title          string                `json:"title"`
	Description    string                `json:"description,omitempty"`
	Status         string                `json:"status,omitempty"`
	Priority       string                `json:"priority,omitempty"`
	PlannedDate    string                `json:"planned_date,omitempty"`
	ChecklistItems []ChecklistItemParams `json:"checklist_items,omitempty"`
}

type UpdateTaskParams struct {
	ID               string                 `json:"id"`
	Title            *string                `json:"title,omitempty"`
	Description      *string                `json:"description,omitempty"`
	Status           *string                `json:"status,omitempty"`
	Priority         *string                `json:"priority,omitempty"`
	ProjectID        *string                `json:"project_id,omitempty"`
	PlannedDate      *string                `json:"planned_date,omitempty"`
	ClearPlannedDate bool                   `json:"clear_planned_date,omitempty"`
	ChecklistItems   *[]ChecklistItemParams `json:"checklist_items,omitempty" jsonschema:"replaces the whole checklist when present"`
}

type MoveTaskParams struct {
	ID     string `json:"id"`
	Status string `json:"status" jsonschema:"TODO, IN_PROGRESS or DONE"`
}

type ToggleChecklistItemParams struct {
	TaskID    string `json:"task_id"`
	ItemID    string `json:"item_id"`
	Completed *bool  `json:"completed,omitempty" jsonschema:"new state; flips the current state when omitted"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

// taskView is a task as the REST API returns it.
type taskView struct {
	task.Task
	Progress         int `json:"progress"`
	ProjectTaskCount int `json:"projectTaskCount"`
}

// taskBody is the body of POST and PUT on /api/tasks. Pointer fields
// distinguish absent from empty; plannedDate distinguishes absent from null.
type taskBody struct {
	ID             *string                    `json:"id"`
	Title          *string                    `json:"title"`
	Description    *string                    `json:"description"`
	Status         *task.Status               `json:"status"`
	Priority       *task.Priority             `json:"priority"`
	ProjectID      *string                    `json:"projectId"`
	PlannedDate    json.RawMessage            `json:"plannedDate"`
	ChecklistItems *[]task.ChecklistItemInput `json:"checklistItems"`
}

type checklistPatch struct {
	Completed *bool `json:"completed"`
}

// plannedDate decodes the raw plannedDate field. set is false when the field
// was absent; a JSON null yields set with a nil date.
func (b taskBody) plannedDate() (date *time.Time, set bool, err error) {
	raw := bytes.TrimSpace(b.PlannedDate)
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil, true, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, true, validation.Invalid("plannedDate", "plannedDate must be a date")
	}
	if strings.TrimSpace(text) == "" {
		return nil, true, nil
	}
	d, err := task.ParseDate(text)
	if err != nil {
		return nil, true, validation.Invalid("plannedDate", "plannedDate must be a date")
	}
	return &d, true, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := task.ListOptions{
		ProjectID: strings.TrimSpace(q.Get("projectId")),
		Status:    task.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
	}
	tasks, err := s.tasks.List(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to fetch tasks")
		return
	}

	counts := s.taskCounts(r.Context())
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView{Task: t, Progress: t.Progress(), ProjectTaskCount: counts[t.ProjectID]})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to fetch task")
		return
	}
	writeJSON(w, http.StatusOK, s.view(r.Context(), t))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, _, err := body.plannedDate()
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to create task")
		return
	}

	t, err := s.tasks.Create(r.Context(), task.CreateRequest{
		Title:          deref(body.Title),
		Description:    deref(body.Description),
		Status:         deref(body.Status),
		Priority:       deref(body.Priority),
		ProjectID:      deref(body.ProjectID),
		PlannedDate:    date,
		ChecklistItems: deref(body.ChecklistItems),
	})
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, s.view(r.Context(), t))
}

// updateTask serves PUT /api/tasks/{id} and PUT /api/tasks with the id in
// the body. The path id wins when both are present.
func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		id = strings.TrimSpace(deref(body.ID))
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "Task ID is required")
		return
	}

	date, dateSet, err := body.plannedDate()
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to update task")
		return
	}

	req := task.UpdateRequest{
		ID:               id,
		Title:            body.Title,
		Description:      body.Description,
		Status:           body.Status,
		Priority:         body.Priority,
		ProjectID:        body.ProjectID,
		PlannedDate:      date,
		ClearPlannedDate: dateSet && date == nil,
	}
	if body.ChecklistItems != nil {
		req.ChecklistItems = *body.ChecklistItems
		req.ReplaceChecklist = true
	}

	t, err := s.tasks.Update(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, s.view(r.Context(), t))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "Task ID is required as a query parameter")
		return
	}
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to delete task")
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) setChecklistItem(w http.ResponseWriter, r *http.Request) {
	var patch checklistPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Completed == nil {
		writeError(w, http.StatusBadRequest, "completed is required")
		return
	}
	t, err := s.tasks.SetChecklistItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), *patch.Completed)
	if err != nil {
		s.writeServiceError(w, r, err, "task", "Failed to update checklist item")
		return
	}
	writeJSON(w, http.StatusOK, s.view(r.Context(), t))
}

func (s *Server) view(ctx context.Context, t *task.Task) taskView {
	v := taskView{Task: *t, Progress: t.Progress()}
	if proj, err := s.projects.Get(ctx, t.ProjectID); err == nil {
		v.ProjectTaskCount = proj.TaskCount
	}
	return v
}

// taskCounts maps project IDs to their task counts. A failure leaves the
// counts at zero rather than failing the listing.
func (s *Server) taskCounts(ctx context.Context) map[string]int {
	projects, err := s.projects.List(ctx)
	if err != nil {
		s.logger.Warn("listing projects for task counts", "error", err)
		return nil
	}
	counts := make(map[string]int, len(projects))
	for _, p := range projects {
		counts[p.ID] = p.TaskCount
	}
	return counts
}

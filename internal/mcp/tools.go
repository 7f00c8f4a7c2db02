package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

// TaskResult is a task as tools return it.
type TaskResult struct {
	task.Task
	Progress int `json:"progress"`
}

func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	// Projects
	addTool(server, logger, "list_projects", "List all projects with their task counts",
		func(ctx context.Context, _ ListProjectsParams) (any, error) {
			return svc.Projects.List(ctx)
		})
	addTool(server, logger, "get_project", "Get one project by ID",
		func(ctx context.Context, in IDParams) (any, error) {
			return svc.Projects.Get(ctx, in.ID)
		})
	addTool(server, logger, "create_project", "Create a project",
		func(ctx context.Context, in CreateProjectParams) (any, error) {
			return svc.Projects.Create(ctx, project.CreateRequest{
				Name:        in.Name,
				Description: in.Description,
				Logo:        in.Logo,
				IsMain:      in.IsMain,
			})
		})
	addTool(server, logger, "save_project", "Create or fully replace a project by ID",
		func(ctx context.Context, in SaveProjectParams) (any, error) {
			return svc.Projects.Save(ctx, project.SaveRequest{
				ID:          in.ID,
				Name:        in.Name,
				Description: in.Description,
				Logo:        in.Logo,
				IsMain:      in.IsMain,
				Viewed:      in.Viewed,
			})
		})
	addTool(server, logger, "delete_project", "Delete a project with all its tasks",
		func(ctx context.Context, in IDParams) (any, error) {
			if err := svc.Projects.Delete(ctx, in.ID); err != nil {
				return nil, err
			}
			return DeleteResponse{Success: true}, nil
		})
	addTool(server, logger, "set_main_project", "Make a project the single main project",
		func(ctx context.Context, in IDParams) (any, error) {
			return svc.Projects.SetMain(ctx, in.ID)
		})
	addTool(server, logger, "get_project_stats", "Count a project's tasks per board column",
		func(ctx context.Context, in ProjectStatsParams) (any, error) {
			if _, err := svc.Projects.Get(ctx, in.ProjectID); err != nil {
				return nil, err
			}
			return svc.Tasks.Summary(ctx, in.ProjectID)
		})

	// Tasks
	addTool(server, logger, "list_tasks", "List tasks, optionally filtered by project and status",
		func(ctx context.Context, in ListTasksParams) (any, error) {
			tasks, err := svc.Tasks.List(ctx, task.ListOptions{
				ProjectID: strings.TrimSpace(in.ProjectID),
				Status:    parseStatus(in.Status),
			})
			if err != nil {
				return nil, err
			}
			out := make([]TaskResult, 0, len(tasks))
			for _, t := range tasks {
				out = append(out, TaskResult{Task: t, Progress: t.Progress()})
			}
			return out, nil
		})
	addTool(server, logger, "get_task", "Get one task with its checklist",
		func(ctx context.Context, in IDParams) (any, error) {
			return taskResult(svc.Tasks.Get(ctx, in.ID))
		})
	addTool(server, logger, "create_task", "Create a task on a project board",
		func(ctx context.Context, in CreateTaskParams) (any, error) {
			req, err := createRequest(in.ProjectID, in.Title, in.Description, in.Status, in.Priority, in.PlannedDate, in.ChecklistItems)
			if err != nil {
				return nil, err
			}
			return taskResult(svc.Tasks.Create(ctx, req))
		})
	addTool(server, logger, "save_task", "Create or fully replace a task by ID",
		func(ctx context.Context, in SaveTaskParams) (any, error) {
			req, err := createRequest(in.ProjectID, in.Title, in.Description, in.Status, in.Priority, in.PlannedDate, in.ChecklistItems)
			if err != nil {
				return nil, err
			}
			return taskResult(svc.Tasks.Save(ctx, task.SaveRequest{ID: in.ID, CreateRequest: req}))
		})
	addTool(server, logger, "update_task", "Change only the given fields of a task",
		func(ctx context.Context, in UpdateTaskParams) (any, error) {
			req, err := updateRequest(in)
			if err != nil {
				return nil, err
			}
			return taskResult(svc.Tasks.Update(ctx, req))
		})
	addTool(server, logger, "move_task", "Move a task to another board column",
		func(ctx context.Context, in MoveTaskParams) (any, error) {
			return taskResult(svc.Tasks.Move(ctx, in.ID, parseStatus(in.Status)))
		})
	addTool(server, logger, "delete_task", "Delete a task and its checklist",
		func(ctx context.Context, in IDParams) (any, error) {
			if err := svc.Tasks.Delete(ctx, in.ID); err != nil {
				return nil, err
			}
			return DeleteResponse{Success: true}, nil
		})
	addTool(server, logger, "toggle_checklist_item", "Set or flip the completion of one checklist item",
		func(ctx context.Context, in ToggleChecklistItemParams) (any, error) {
			completed, err := targetCompletion(ctx, svc.Tasks, in)
			if err != nil {
				return nil, err
			}
			return taskResult(svc.Tasks.SetChecklistItem(ctx, in.TaskID, in.ItemID, completed))
		})
}

// addTool registers a tool whose result is the JSON encoding of fn's value.
// Domain errors become tool errors rather than protocol errors.
func addTool[In any](server *sdkmcp.Server, logger *slog.Logger, name, description string, fn func(context.Context, In) (any, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				return errorResult(logger, name, err)
			}
			return jsonResult(out)
		})
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(logger *slog.Logger, tool string, err error) (*sdkmcp.CallToolResult, any, error) {
	apiErr := MapError(err)
	if apiErr.Code == "INTERNAL" {
		logger.Error("mcp tool failed", "tool", tool, "error", err)
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func taskResult(t *task.Task, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return TaskResult{Task: *t, Progress: t.Progress()}, nil
}

func parseStatus(s string) task.Status {
	return task.Status(strings.ToUpper(strings.TrimSpace(s)))
}

func parsePriority(s string) task.Priority {
	return task.Priority(strings.ToUpper(strings.TrimSpace(s)))
}

func parsePlannedDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := task.ParseDate(s)
	if err != nil {
		return nil, validation.Invalid("planned_date", "planned_date must be a date")
	}
	return &d, nil
}

func checklist(items []ChecklistItemParams) []task.ChecklistItemInput {
	out := make([]task.ChecklistItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, task.ChecklistItemInput{ID: item.ID, Title: item.Title, Completed: item.Completed})
	}
	return out
}

func createRequest(projectID, title, description, status, priority, plannedDate string, items []ChecklistItemParams) (task.CreateRequest, error) {
	date, err := parsePlannedDate(plannedDate)
	if err != nil {
		return task.CreateRequest{}, err
	}
	return task.CreateRequest{
		Title:          title,
		Description:    description,
		Status:         parseStatus(status),
		Priority:       parsePriority(priority),
		ProjectID:      projectID,
		PlannedDate:    date,
		ChecklistItems: checklist(items),
	}, nil
}

func updateRequest(in UpdateTaskParams) (task.UpdateRequest, error) {
	req := task.UpdateRequest{
		ID:               in.ID,
		Title:            in.Title,
		Description:      in.Description,
		ProjectID:        in.ProjectID,
		ClearPlannedDate: in.ClearPlannedDate,
	}
	if in.Status != nil {
		status := parseStatus(*in.Status)
		req.Status = &status
	}
	if in.Priority != nil {
		priority := parsePriority(*in.Priority)
		req.Priority = &priority
	}
	if in.PlannedDate != nil && !in.ClearPlannedDate {
		date, err := parsePlannedDate(*in.PlannedDate)
		if err != nil {
			return task.UpdateRequest{}, err
		}
		req.PlannedDate = date
		req.ClearPlannedDate = date == nil
	}
	if in.ChecklistItems != nil {
		req.ChecklistItems = checklist(*in.ChecklistItems)
		req.ReplaceChecklist = true
	}
	return req, nil
}

// targetCompletion resolves the completion state to store, flipping the
// current one when the caller did not give it.
func targetCompletion(ctx context.Context, tasks TaskService, in ToggleChecklistItemParams) (bool, error) {
	if in.Completed != nil {
		return *in.Completed, nil
	}
	t, err := tasks.Get(ctx, in.TaskID)
	if err != nil {
		return false, err
	}
	for _, item := range t.ChecklistItems {
		if item.ID == in.ItemID {
			return !item.Completed, nil
		}
	}
	return false, task.ErrChecklistItemNotFound
}

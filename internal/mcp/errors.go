package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unrecognised errors become
// INTERNAL without exposing their detail.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var fieldErr *validation.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return &APIError{Code: "INVALID_INPUT", Message: fieldErr.Message, Details: map[string]string{"field": fieldErr.Field}}
	case errors.Is(err, validation.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid IDs"}
	case errors.Is(err, task.ErrTaskNotFound):
		return &APIError{Code: "TASK_NOT_FOUND", Message: "task not found", RecoveryHint: "Call list_tasks for valid IDs"}
	case errors.Is(err, task.ErrChecklistItemNotFound):
		return &APIError{Code: "CHECKLIST_ITEM_NOT_FOUND", Message: "checklist item not found", RecoveryHint: "Call get_task to see the checklist"}
	default:
		return &APIError{Code: "INTERNAL", Message: "store operation failed", RecoveryHint: "Retry later"}
	}
}

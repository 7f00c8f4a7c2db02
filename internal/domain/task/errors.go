package task

import (
	"errors"

	"github.com/rpggio/taskboard/internal/validation"
)

var (
	// ErrTaskNotFound indicates the task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrChecklistItemNotFound indicates the checklist item doesn't exist on the task.
	ErrChecklistItemNotFound = errors.New("checklist item not found")
	// ErrInvalidInput indicates invalid task input.
	ErrInvalidInput = validation.ErrInvalidInput
)

package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/validation"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// decodeBody reads a JSON body into v. An empty body is an error.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// writeServiceError maps domain errors onto HTTP status codes. Anything not
// recognised is logged and reported with the generic fallback message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, entity, fallback string) {
	var fieldErr *validation.FieldError
	switch {
	case errors.As(err, &fieldErr):
		writeError(w, http.StatusBadRequest, fieldErr.Message)
	case errors.Is(err, validation.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, task.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, task.ErrChecklistItemNotFound):
		writeError(w, http.StatusNotFound, "Checklist item not found")
	default:
		s.metrics.RecordStoreError(entity)
		s.logger.Error(fallback,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/taskboard/internal/domain/project"
)

// projectPatch is the body of PUT /api/projects/{id}. Absent fields keep
// their stored value.
type projectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
	IsMain      *bool   `json:"isMain"`
	Viewed      *bool   `json:"viewed"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to fetch projects")
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req project.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	proj, err := s.projects.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var patch projectPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	proj, err := s.projects.Update(r.Context(), project.UpdateRequest{
		ID:          chi.URLParam(r, "id"),
		Name:        patch.Name,
		Description: patch.Description,
		Logo:        patch.Logo,
		IsMain:      patch.IsMain,
		Viewed:      patch.Viewed,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *Server) setMainProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.projects.SetMain(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) projectStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.projects.Get(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to fetch project stats")
		return
	}
	summary, err := s.tasks.Summary(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "project", "Failed to fetch project stats")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

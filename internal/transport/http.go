package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/metrics"
)

// ProjectService is the project behaviour the REST handlers need.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Update(ctx context.Context, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, id string) error
	SetMain(ctx context.Context, id string) (*project.Project, error)
}

// TaskService is the task behaviour the REST handlers need.
type TaskService interface {
	List(ctx context.Context, opts task.ListOptions) ([]task.Task, error)
	Get(ctx context.Context, id string) (*task.Task, error)
	Create(ctx context.Context, req task.CreateRequest) (*task.Task, error)
	Update(ctx context.Context, req task.UpdateRequest) (*task.Task, error)
	Delete(ctx context.Context, id string) error
	SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) (*task.Task, error)
	Summary(ctx context.Context, projectID string) (task.Summary, error)
}

// Pinger reports whether the backing store can be reached. /health uses it
// when Config.Store is set.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the HTTP server.
type Config struct {
	Projects    ProjectService
	Tasks       TaskService
	Store       Pinger
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// Server holds the REST handlers.
type Server struct {
	projects ProjectService
	tasks    TaskService
	store    Pinger
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewServer creates the HTTP router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{
		projects: cfg.Projects,
		tasks:    cfg.Tasks,
		store:    cfg.Store,
		logger:   logger,
		metrics:  cfg.Metrics,
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(srv.observe)
	r.Use(corsHandler.Handler)

	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", srv.listProjects)
			r.Post("/", srv.createProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", srv.getProject)
				r.Put("/", srv.updateProject)
				r.Delete("/", srv.deleteProject)
				r.Post("/main", srv.setMainProject)
				r.Get("/stats", srv.projectStats)
			})
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", srv.listTasks)
			r.Post("/", srv.createTask)
			r.Put("/", srv.updateTask)
			r.Delete("/", srv.deleteTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", srv.getTask)
				r.Put("/", srv.updateTask)
				r.Delete("/", srv.deleteTask)
				r.Patch("/checklist/{itemId}", srv.setChecklistItem)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Save(ctx context.Context, req project.SaveRequest) (*project.Project, error)
	Delete(ctx context.Context, id string) error
	SetMain(ctx context.Context, id string) (*project.Project, error)
}

// TaskService defines task operations needed by MCP.
type TaskService interface {
	List(ctx context.Context, opts task.ListOptions) ([]task.Task, error)
	Get(ctx context.Context, id string) (*task.Task, error)
	Create(ctx context.Context, req task.CreateRequest) (*task.Task, error)
	Save(ctx context.Context, req task.SaveRequest) (*task.Task, error)
	Update(ctx context.Context, req task.UpdateRequest) (*task.Task, error)
	Move(ctx context.Context, id string, status task.Status) (*task.Task, error)
	Delete(ctx context.Context, id string) error
	SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) (*task.Task, error)
	Summary(ctx context.Context, projectID string) (task.Summary, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Tasks    TaskService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "taskboard",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, logger)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)
}

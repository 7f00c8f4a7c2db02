// Package testserver runs the full HTTP stack over an in-memory SQLite store
// for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/taskboard/internal/client"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/mcp"
	"github.com/rpggio/taskboard/internal/metrics"
	"github.com/rpggio/taskboard/internal/retry"
	"github.com/rpggio/taskboard/internal/seed"
	"github.com/rpggio/taskboard/internal/sqlstore"
	"github.com/rpggio/taskboard/internal/transport"
)

// TestServer is a running server and the pieces behind it.
type TestServer struct {
	Server   *httptest.Server
	Store    *sqlstore.Store
	Projects *project.Service
	Tasks    *task.Service
	Metrics  *metrics.Metrics
	Client   *client.Client
}

// Option adjusts a TestServer before it starts.
type Option func(*options)

type options struct {
	seed bool
}

// WithSeed loads the example project and task before serving.
func WithSeed() Option {
	return func(o *options) { o.seed = true }
}

// New starts a server backed by a fresh shared-cache in-memory database named
// after the test.
func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	store, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, dsn, nil)
	require.NoError(t, err)

	if o.seed {
		_, err := seed.Run(ctx, store, nil)
		require.NoError(t, err)
	}

	m := metrics.New()
	policy := retry.Policy{MaxAttempts: 1, OnRetry: m.RecordRetry}
	projectSvc := project.NewService(store.Projects(), nil)
	taskSvc := task.NewService(store.Tasks(), store.Projects(), policy, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{Projects: projectSvc, Tasks: taskSvc},
		Version:  "test",
	})
	server := httptest.NewServer(transport.NewServer(transport.Config{
		Projects: projectSvc,
		Tasks:    taskSvc,
		Store:    store,
		Metrics:  m,
		MCP:      mcp.NewHTTPHandler(mcpServer),
	}))

	t.Cleanup(func() {
		server.Close()
		_ = store.Close()
	})

	return &TestServer{
		Server:   server,
		Store:    store,
		Projects: projectSvc,
		Tasks:    taskSvc,
		Metrics:  m,
		Client:   client.New(server.URL, client.WithHTTPClient(server.Client())),
	}
}

// URL is the base URL of the running server.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

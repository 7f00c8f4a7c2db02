package functional_test

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// newStdioSession starts the server binary in stdio mode. Build it first
// with: go build -o bin/taskboard-server ./cmd/server
func newStdioSession(t *testing.T) *mcpSession {
	t.Helper()

	binaryPath := "./bin/taskboard-server"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/taskboard-server"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("server binary not found; build ./cmd/server into bin/taskboard-server first")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"TASKBOARD_TRANSPORT=stdio",
		"TASKBOARD_STORE_DRIVER=memory",
		"TASKBOARD_SEED=true",
		"TASKBOARD_LOG_LEVEL=warn",
	)
	return connect(t, &sdkmcp.CommandTransport{Command: cmd})
}

func TestStdioFunctional_ServerInfoAndTools(t *testing.T) {
	s := newStdioSession(t)

	info := s.session.InitializeResult()
	require.NotNil(t, info)
	require.Equal(t, "taskboard", info.ServerInfo.Name)

	tools, err := s.session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_projects", "create_task", "move_task", "toggle_checklist_item"} {
		require.True(t, names[want], "missing tool %s", want)
	}
}

func TestStdioFunctional_SeededBoard(t *testing.T) {
	s := newStdioSession(t)

	var projects []projectOut
	s.callTool(t, "list_projects", nil, &projects)
	require.Len(t, projects, 1)
	require.True(t, projects[0].IsMain)

	var tasks []taskOut
	s.callTool(t, "list_tasks", map[string]any{"project_id": projects[0].ID}, &tasks)
	require.Len(t, tasks, 1)

	var moved taskOut
	s.callTool(t, "move_task", map[string]any{"id": tasks[0].ID, "status": "DONE"}, &moved)
	require.Equal(t, "DONE", moved.Status)
}

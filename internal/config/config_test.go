package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, 3, cfg.Retry.Attempts)
	require.Equal(t, time.Second, cfg.Retry.Delay)
	require.True(t, cfg.Seed)
	require.Equal(t, "http", cfg.Transport.Mode)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "taskboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
store:
  driver: file
  dir: /tmp/board
retry:
  attempts: 5
  delay: 250ms
`), 0o644))

	t.Setenv("TASKBOARD_CONFIG_PATH", path)
	t.Setenv("TASKBOARD_SERVER_PORT", "9100")
	t.Setenv("TASKBOARD_SEED", "false")
	t.Setenv("TASKBOARD_CORS_ORIGINS", "http://localhost:3000, https://board.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, DriverFile, cfg.Store.Driver)
	require.Equal(t, "/tmp/board", cfg.Store.Dir)
	require.Equal(t, 5, cfg.Retry.Attempts)
	require.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
	require.False(t, cfg.Seed)
	require.Equal(t, []string{"http://localhost:3000", "https://board.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKBOARD_STORE_DRIVER=memory\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TASKBOARD_STORE_DRIVER") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := map[string]string{
		"TASKBOARD_SERVER_PORT":    "eighty",
		"TASKBOARD_STORE_DRIVER":   "mongo",
		"TASKBOARD_TRANSPORT":      "carrier-pigeon",
		"TASKBOARD_RETRY_ATTEMPTS": "0",
		"TASKBOARD_RETRY_DELAY":    "soon",
		"TASKBOARD_SEED":           "perhaps",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rpggio/taskboard/internal/client"
	"github.com/rpggio/taskboard/internal/tui"
)

// Version is set at build time via -ldflags "-X main.Version=X.Y.Z"
var Version = "0.0.0-dev"

type options struct {
	apiURL    string
	projectID string
	logPath   string
}

func newRootCmd(run func(options) error) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Terminal board for a taskboard server",
		Long: `taskboard shows the projects and tasks of a taskboard server as a
three-column board (To Do, In Progress, Done).

Examples:
  taskboard                                  # open the main project
  taskboard --api http://board.local:8080    # talk to another server
  taskboard --project <id> --log debug.log   # open one project, log to a file`,
		Version:      Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.apiURL, "api", envOr("TASKBOARD_API_URL", "http://localhost:8080"), "base URL of the taskboard server")
	cmd.Flags().StringVar(&opts.projectID, "project", "", "project to open (defaults to the main project)")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "write debug logs to this file")
	return cmd
}

func runBoard(opts options) error {
	// The terminal belongs to the UI, so logs only ever go to a file.
	logWriter := io.Discard
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logWriter = f
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))

	model := tui.New(client.New(opts.apiURL),
		tui.WithProject(opts.projectID),
		tui.WithLogger(logger),
	)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("ui stopped", "error", err)
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := newRootCmd(runBoard).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

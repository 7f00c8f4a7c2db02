package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/taskboard/internal/config"
	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/mcp"
	"github.com/rpggio/taskboard/internal/metrics"
	"github.com/rpggio/taskboard/internal/retry"
	"github.com/rpggio/taskboard/internal/seed"
	"github.com/rpggio/taskboard/internal/storage"
	"github.com/rpggio/taskboard/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.TransportStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := storage.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if cfg.Seed {
		if _, err := seed.Run(ctx, store, logger); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}

	m := metrics.New()
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.Attempts,
		Delay:       cfg.Retry.Delay,
		OnRetry:     m.RecordRetry,
		Logger:      logger,
	}
	projectSvc := project.NewService(store.Projects(), logger)
	taskSvc := task.NewService(store.Tasks(), store.Projects(), policy, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{Projects: projectSvc, Tasks: taskSvc},
		Version:  version,
		Logger:   logger,
	})

	if cfg.Transport.Mode == config.TransportStdio {
		return runStdioMode(ctx, logger, mcpServer)
	}

	router := transport.NewServer(transport.Config{
		Projects:    projectSvc,
		Tasks:       taskSvc,
		Store:       store,
		Logger:      logger,
		Metrics:     m,
		CORSOrigins: cfg.Server.CORSOrigins,
		MCP:         mcp.NewHTTPHandler(mcpServer),
	})
	return runHTTPMode(ctx, logger, router, cfg.Server.Host, cfg.Server.Port)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

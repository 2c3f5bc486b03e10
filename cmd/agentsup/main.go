// Package main is the entry point for the agent supervisor. It is invoked
// as a subprocess by a parent coding agent and exposes the Tool API over
// MCP stdio by default, matching the MCP stdio-server convention; an
// optional debug HTTP/SSE transport can be enabled via config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kdlbs/agentsup/internal/common/config"
	"github.com/kdlbs/agentsup/internal/common/constants"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/kdlbs/agentsup/internal/process"
	"github.com/kdlbs/agentsup/internal/registry"
	"github.com/kdlbs/agentsup/internal/store"
	"github.com/kdlbs/agentsup/internal/toolapi"
	"github.com/kdlbs/agentsup/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Tracing.Enabled && cfg.Tracing.OTLPEndpoint != "" {
		_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	}

	if err := run(cfg, log); err != nil {
		log.Error("agentsup exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	root := cfg.Store.Root
	if root == "" {
		resolved, err := store.ResolveRoot()
		if err != nil {
			return fmt.Errorf("resolve store root: %w", err)
		}
		root = resolved
	}

	st, err := store.New(root, log)
	if err != nil {
		return fmt.Errorf("init event store: %w", err)
	}
	log.Info("event store ready", zap.String("root", st.Root()))

	reg, err := registry.Load()
	if err != nil {
		return fmt.Errorf("load kind registry: %w", err)
	}

	mgr := process.New(st, reg, log, process.Options{
		MaxConcurrent: cfg.Pool.MaxConcurrent,
		GracePeriod:   cfg.Pool.GracePeriod,
		DefaultMode:   registry.Mode(cfg.Agent.DefaultMode),
		DefaultEffort: registry.Effort(cfg.Agent.DefaultEffort),
		LoopFileName:  cfg.Agent.LoopFileName,
	})
	if err := mgr.Recover(); err != nil {
		return fmt.Errorf("recover agent state: %w", err)
	}

	svc := toolapi.NewService(mgr, st)

	mcpServer := server.NewMCPServer("agentsup", "1.0.0", server.WithToolCapabilities(true))
	toolapi.RegisterTools(mcpServer, svc, log)

	var debugSrv *toolapi.DebugServer
	if cfg.Debug.Enabled {
		debugSrv = toolapi.NewDebugServer(toolapi.DebugServerConfig{Port: cfg.Debug.Port}, mcpServer, log)
		startCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := debugSrv.Start(startCtx); err != nil {
			return fmt.Errorf("start debug transport: %w", err)
		}
		log.Info("debug MCP transport enabled", zap.Int("port", cfg.Debug.Port))
	}

	stdioDone := make(chan error, 1)
	go func() { stdioDone <- server.ServeStdio(mcpServer) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-stdioDone:
		if err != nil {
			log.Error("stdio transport exited", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	mgr.ShutdownAll(shutdownCtx)
	if debugSrv != nil {
		if err := debugSrv.Stop(shutdownCtx); err != nil {
			log.Warn("error stopping debug transport", zap.Error(err))
		}
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Warn("error flushing tracer", zap.Error(err))
	}

	log.Info("agentsup stopped")
	return nil
}

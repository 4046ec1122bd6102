// Agent communication dashboard server — receives OTLP traces from
// multi-agent applications, distills them into communication events, and
// streams them to WebSocket subscribers.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/api"
	"github.com/agentic-layer/agent-communication-dashboard/pkg/config"
	"github.com/agentic-layer/agent-communication-dashboard/pkg/events"
	"github.com/agentic-layer/agent-communication-dashboard/pkg/version"
)

func main() {
	// Load .env when present; environment variables always win.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	slog.Info("Starting dashboard",
		"version", version.Full(),
		"http_port", cfg.HTTPPort,
		"log_level", cfg.LogLevel)

	filterRegistry := events.NewFilterRegistry(cfg.FilterTTL)
	connManager := events.NewConnectionManager(cfg.WSWriteTimeout)
	httpServer := api.NewServer(cfg, connManager, filterRegistry)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// Close subscriber connections first so the HTTP server can drain.
	connManager.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

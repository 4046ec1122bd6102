// Package api exposes the HTTP surface of the dashboard: the OTLP trace
// ingress, the WebSocket subscriber endpoint, the filter discovery API, and
// the static SPA frontend.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	echo "github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/config"
	"github.com/agentic-layer/agent-communication-dashboard/pkg/events"
)

// Server wires the preprocessor, the subscriber fabric and the filter
// registry to their HTTP endpoints.
type Server struct {
	cfg            *config.Config
	echo           *echo.Echo
	httpServer     *http.Server
	connManager    *events.ConnectionManager
	filterRegistry *events.FilterRegistry
	dashboardDir   string
}

// NewServer creates the server and registers all routes. API routes are
// registered before the SPA fallback so they take precedence.
func NewServer(cfg *config.Config, connManager *events.ConnectionManager, filterRegistry *events.FilterRegistry) *Server {
	s := &Server{
		cfg:            cfg,
		echo:           echo.New(),
		connManager:    connManager,
		filterRegistry: filterRegistry,
		dashboardDir:   cfg.DashboardDir,
	}

	s.echo.Use(securityHeaders())
	s.setupRoutes()
	s.setupDashboardRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.POST("/v1/traces", s.tracesHandler)
	s.echo.GET("/ws", s.wsHandler)
	s.echo.GET("/api/filters", s.filterOptionsHandler)
	s.echo.GET("/api/filters/stats", s.filterStatsHandler)
	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", func(c *echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

// setupDashboardRoutes serves the built frontend with SPA fallback: known
// files are served directly, everything else resolves to index.html so
// client-side routes survive a reload. Skipped when no dashboard dir is
// configured or it has no index.html.
func (s *Server) setupDashboardRoutes() {
	if s.dashboardDir == "" {
		return
	}
	indexPath := filepath.Join(s.dashboardDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		slog.Warn("Dashboard directory has no index.html, skipping static routes",
			"dir", s.dashboardDir)
		return
	}

	s.echo.GET("/*", func(c *echo.Context) error {
		urlPath := c.Request().URL.Path
		requested := filepath.Join(s.dashboardDir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			// Hashed build assets are immutable; unhashed root files
			// must revalidate after deployments.
			if strings.HasPrefix(urlPath, "/assets/") {
				c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			} else {
				c.Response().Header().Set("Cache-Control", "no-cache")
			}
			http.ServeFile(c.Response(), c.Request(), requested)
			return nil
		}
		// SPA fallback. no-cache so browsers pick up new asset hashes
		// after deployments.
		c.Response().Header().Set("Cache-Control", "no-cache")
		http.ServeFile(c.Response(), c.Request(), indexPath)
		return nil
	})
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

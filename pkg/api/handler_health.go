package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/version"
)

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Subscribers int    `json:"subscribers"`
}

// healthHandler handles GET /health.
// The service has no external dependencies to probe, so this reports liveness
// plus the current subscriber count for quick operational checks.
func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		Version:     version.Full(),
		Subscribers: s.connManager.Count(),
	})
}

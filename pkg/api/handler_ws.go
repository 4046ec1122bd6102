package api

import (
	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

// wsHandler upgrades HTTP connections to WebSocket and delegates to
// ConnectionManager. The filter is taken from the query string
// (conversation_id, workforce) and fixed for the connection lifetime.
func (s *Server) wsHandler(c *echo.Context) error {
	filter := models.FilterCriteriaFromQuery(c.Request().URL.Query())

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// The dashboard frontend may be served from a different origin
		// than the ingest endpoint, so all origins are accepted.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}

	// HandleConnection blocks until the WebSocket closes.
	s.connManager.HandleConnection(c.Request().Context(), conn, filter)
	return nil
}

package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// FilterOptionsResponse lists the filter values currently observable in the
// event stream.
type FilterOptionsResponse struct {
	ConversationIDs []string `json:"conversation_ids"`
	WorkforceNames  []string `json:"workforce_names"`
}

// FilterStatsResponse reports registry entry counts.
type FilterStatsResponse struct {
	ConversationIDsCount int `json:"conversation_ids_count"`
	WorkforceNamesCount  int `json:"workforce_names_count"`
}

// filterOptionsHandler handles GET /api/filters. The UI polls this to
// populate its filter dropdowns; both lists are sorted and never null.
func (s *Server) filterOptionsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, FilterOptionsResponse{
		ConversationIDs: s.filterRegistry.ConversationIDs(),
		WorkforceNames:  s.filterRegistry.WorkforceNames(),
	})
}

// filterStatsHandler handles GET /api/filters/stats.
func (s *Server) filterStatsHandler(c *echo.Context) error {
	conversations, workforces := s.filterRegistry.Stats()
	return c.JSON(http.StatusOK, FilterStatsResponse{
		ConversationIDsCount: conversations,
		WorkforceNamesCount:  workforces,
	})
}

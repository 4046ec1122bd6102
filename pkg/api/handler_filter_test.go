package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getJSON(t *testing.T, s *Server, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	return rec
}

func TestFilterOptionsHandler(t *testing.T) {
	s := newTestServer(t)
	workforce := "demo"
	s.filterRegistry.Register("conv-b", nil)
	s.filterRegistry.Register("conv-a", &workforce)

	var resp FilterOptionsResponse
	rec := getJSON(t, s, "/api/filters", &resp)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"conv-a", "conv-b"}, resp.ConversationIDs)
	assert.Equal(t, []string{"demo"}, resp.WorkforceNames)
}

func TestFilterOptionsHandler_EmptyListsNotNull(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, []any{}, raw["conversation_ids"])
	assert.Equal(t, []any{}, raw["workforce_names"])
}

func TestFilterStatsHandler(t *testing.T) {
	s := newTestServer(t)
	workforce := "demo"
	s.filterRegistry.Register("conv-1", &workforce)
	s.filterRegistry.Register("conv-2", &workforce)

	var resp FilterStatsResponse
	rec := getJSON(t, s, "/api/filters/stats", &resp)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, resp.ConversationIDsCount)
	assert.Equal(t, 1, resp.WorkforceNamesCount)
}

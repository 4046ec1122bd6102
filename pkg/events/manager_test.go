package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

func strPtr(s string) *string { return &s }

func setupTestManager(t *testing.T) (*ConnectionManager, *httptest.Server) {
	t.Helper()

	manager := NewConnectionManager(5 * time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			t.Logf("WebSocket accept error: %v", err)
			return
		}
		manager.HandleConnection(r.Context(), conn, models.FilterCriteriaFromQuery(r.URL.Query()))
	}))

	t.Cleanup(func() {
		manager.Close()
		server.Close()
	})
	return manager, server
}

func connectWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + server.URL[len("http"):]
	if query != "" {
		url += "?" + query
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForCount(t *testing.T, manager *ConnectionManager, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for manager.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count never reached %d (have %d)", want, manager.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func agentEvent(conversationID string, workforce *string) *models.AgentEvent {
	return &models.AgentEvent{BaseEvent: models.BaseEvent{
		ActingAgent:    "weather_agent",
		ConversationID: conversationID,
		Timestamp:      "2024-01-15T10:30:00Z",
		EventType:      models.EventTypeAgentStart,
		WorkforceName:  workforce,
	}}
}

func TestConnectionManager_WelcomeFrame(t *testing.T) {
	_, server := setupTestManager(t)
	conn := connectWS(t, server, "")

	msg := readJSON(t, conn)
	assert.Equal(t, "connection_established", msg["type"])
	assert.Equal(t, "Connected to observability dashboard", msg["message"])

	filters := msg["filters"].(map[string]interface{})
	assert.Nil(t, filters["conversation_id"])
	assert.Nil(t, filters["workforce"])
}

func TestConnectionManager_WelcomeFrameEchoesFilter(t *testing.T) {
	_, server := setupTestManager(t)
	conn := connectWS(t, server, "conversation_id=conv-1&workforce=demo")

	msg := readJSON(t, conn)
	filters := msg["filters"].(map[string]interface{})
	assert.Equal(t, "conv-1", filters["conversation_id"])
	assert.Equal(t, "demo", filters["workforce"])
}

func TestConnectionManager_PublishFanout(t *testing.T) {
	manager, server := setupTestManager(t)
	conn1 := connectWS(t, server, "")
	conn2 := connectWS(t, server, "")

	readJSON(t, conn1)
	readJSON(t, conn2)
	waitForCount(t, manager, 2)

	manager.Publish(agentEvent("conv-1", nil))

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readJSON(t, conn)
		assert.Equal(t, "agent_start", msg["event_type"])
		assert.Equal(t, "conv-1", msg["conversation_id"])
	}
}

func TestConnectionManager_PublishRespectsFilter(t *testing.T) {
	manager, server := setupTestManager(t)
	conn := connectWS(t, server, "conversation_id=conv-1")

	readJSON(t, conn)
	waitForCount(t, manager, 1)

	// The first event does not match the filter, the second does. The next
	// frame the subscriber sees must be the matching one.
	manager.Publish(agentEvent("other", nil))
	manager.Publish(agentEvent("conv-1", nil))

	msg := readJSON(t, conn)
	assert.Equal(t, "conv-1", msg["conversation_id"])
}

func TestConnectionManager_FilteredFanout(t *testing.T) {
	manager, server := setupTestManager(t)
	filtered := connectWS(t, server, "conversation_id=c1")
	unfiltered := connectWS(t, server, "")

	readJSON(t, filtered)
	readJSON(t, unfiltered)
	waitForCount(t, manager, 2)

	manager.Publish(agentEvent("c1", nil))
	manager.Publish(agentEvent("c2", nil))

	// The unfiltered subscriber sees both events in publish order.
	assert.Equal(t, "c1", readJSON(t, unfiltered)["conversation_id"])
	assert.Equal(t, "c2", readJSON(t, unfiltered)["conversation_id"])

	// The filtered subscriber sees only the c1 event: publish a sentinel it
	// matches and verify it arrives directly after the c1 event.
	manager.Publish(agentEvent("c1", strPtr("sentinel")))
	assert.Equal(t, "c1", readJSON(t, filtered)["conversation_id"])
	msg := readJSON(t, filtered)
	assert.Equal(t, "c1", msg["conversation_id"])
	assert.Equal(t, "sentinel", msg["workforce_name"])
}

func TestConnectionManager_WorkforceFilter(t *testing.T) {
	manager, server := setupTestManager(t)
	conn := connectWS(t, server, "workforce=demo")

	readJSON(t, conn)
	waitForCount(t, manager, 1)

	manager.Publish(agentEvent("conv-1", nil))            // no workforce, filtered out
	manager.Publish(agentEvent("conv-2", strPtr("prod"))) // wrong workforce
	manager.Publish(agentEvent("conv-3", strPtr("demo")))

	msg := readJSON(t, conn)
	assert.Equal(t, "conv-3", msg["conversation_id"])
}

func TestConnectionManager_DisconnectRemovesSubscriber(t *testing.T) {
	manager, server := setupTestManager(t)
	conn := connectWS(t, server, "")

	readJSON(t, conn)
	waitForCount(t, manager, 1)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	waitForCount(t, manager, 0)
}

func TestConnectionManager_PublishWithNoSubscribers(t *testing.T) {
	manager := NewConnectionManager(time.Second)
	// Must not panic or block.
	manager.Publish(agentEvent("conv-1", nil))
	assert.Equal(t, 0, manager.Count())
}

func TestConnectionManager_Close(t *testing.T) {
	manager, server := setupTestManager(t)
	conn := connectWS(t, server, "")

	readJSON(t, conn)
	waitForCount(t, manager, 1)

	manager.Close()
	assert.Equal(t, 0, manager.Count())

	// The connection is closed server-side; the next read fails.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	assert.Error(t, err)
}

func TestConnectionManager_UnsubscribeIdempotent(t *testing.T) {
	manager, server := setupTestManager(t)
	conn := connectWS(t, server, "")

	readJSON(t, conn)
	waitForCount(t, manager, 1)

	manager.mu.RLock()
	var sub *Subscriber
	for _, s := range manager.subscribers {
		sub = s
	}
	manager.mu.RUnlock()
	require.NotNil(t, sub)

	manager.Unsubscribe(sub)
	manager.Unsubscribe(sub)
	manager.Unsubscribe(nil)
	assert.Equal(t, 0, manager.Count())
}

// Package events provides real-time delivery of communication events over
// long-lived WebSocket subscriber connections, with per-subscriber filtering,
// and the TTL registry of filter values observed in the event stream.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/metrics"
	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

// sendQueueCap bounds the per-subscriber send queue. A subscriber that falls
// this far behind is indistinguishable from a dead connection and is evicted;
// send failure is the sole eviction signal, there is no other backpressure.
const sendQueueCap = 256

// Application close codes on the subscriber channel.
const (
	// StatusInvalidRequest closes a connection whose request was malformed
	// before the handshake completed.
	StatusInvalidRequest websocket.StatusCode = 4400
	// StatusInternalError closes a connection after a server-side
	// serialization failure.
	StatusInternalError websocket.StatusCode = 4500
)

// Subscriber is one live WebSocket client with its filter. Frames are written
// by a dedicated goroutine fed from a buffered queue, so deliveries to
// distinct subscribers never serialize behind one another while frames to the
// same subscriber keep publish order.
type Subscriber struct {
	ID     string
	Filter models.FilterCriteria

	conn   *websocket.Conn
	queue  chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Subscriber) close(code websocket.StatusCode, reason string) {
	s.cancel()
	s.once.Do(func() {
		_ = s.conn.Close(code, reason)
	})
}

// ConnectionManager is the subscriber distribution fabric: it accepts
// subscriptions, fans each published event out to every matching subscriber,
// and evicts subscribers whose sends fail.
type ConnectionManager struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	writeTimeout time.Duration
}

// NewConnectionManager creates a fabric whose frame writes time out after
// writeTimeout.
func NewConnectionManager(writeTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		subscribers:  make(map[string]*Subscriber),
		writeTimeout: writeTimeout,
	}
}

// welcomeFrame is the first frame sent on every subscriber connection,
// echoing the filter back to the client.
type welcomeFrame struct {
	Type    string     `json:"type"`
	Message string     `json:"message"`
	Filters filterEcho `json:"filters"`
}

type filterEcho struct {
	ConversationID *string `json:"conversation_id"`
	Workforce      *string `json:"workforce"`
}

// clientMessage is the JSON structure for client → server frames. Only
// update_filter is recognized, and it is currently reserved (logged only).
type clientMessage struct {
	Type string `json:"type"`
}

// Subscribe registers a connection with its filter, starts its writer, and
// queues the connection_established welcome frame. The returned Subscriber is
// the handle for Unsubscribe. A welcome serialization failure returns an
// error without registering; the caller closes the connection.
func (m *ConnectionManager) Subscribe(parentCtx context.Context, conn *websocket.Conn, filter models.FilterCriteria) (*Subscriber, error) {
	welcome, err := json.Marshal(welcomeFrame{
		Type:    "connection_established",
		Message: "Connected to observability dashboard",
		Filters: filterEcho{ConversationID: filter.ConversationID, Workforce: filter.Workforce},
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parentCtx)
	sub := &Subscriber{
		ID:     uuid.New().String(),
		Filter: filter,
		conn:   conn,
		queue:  make(chan []byte, sendQueueCap),
		ctx:    ctx,
		cancel: cancel,
	}

	m.mu.Lock()
	m.subscribers[sub.ID] = sub
	count := len(m.subscribers)
	m.mu.Unlock()
	metrics.ActiveSubscribers.Set(float64(count))

	go m.writeLoop(sub)
	sub.queue <- welcome

	slog.Info("Subscriber connected",
		"subscriber_id", sub.ID,
		"filter", describeFilter(filter),
		"total", count)
	return sub, nil
}

// Unsubscribe removes a subscriber and closes its connection. Idempotent.
func (m *ConnectionManager) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	_, live := m.subscribers[sub.ID]
	delete(m.subscribers, sub.ID)
	count := len(m.subscribers)
	m.mu.Unlock()

	sub.close(websocket.StatusNormalClosure, "")
	if live {
		metrics.ActiveSubscribers.Set(float64(count))
		slog.Info("Subscriber disconnected", "subscriber_id", sub.ID, "remaining", count)
	}
}

// Publish serializes the event once and delivers it to every subscriber whose
// filter matches. Subscribers whose queue is closed or full are evicted after
// the iteration; publication to the remaining subscribers always continues.
func (m *ConnectionManager) Publish(event models.CommunicationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to serialize event", "event_type", event.Header().EventType, "error", err)
		return
	}

	// Snapshot under the read lock; enqueueing happens outside it so
	// subscribe/unsubscribe are never stalled by a publish.
	m.mu.RLock()
	subs := make([]*Subscriber, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var evicted []*Subscriber
	sent := 0
	for _, sub := range subs {
		if !sub.Filter.Matches(event) {
			continue
		}
		select {
		case sub.queue <- data:
			sent++
		case <-sub.ctx.Done():
			evicted = append(evicted, sub)
		default:
			// Queue full — the subscriber stopped draining.
			evicted = append(evicted, sub)
		}
	}

	for _, sub := range evicted {
		slog.Warn("Evicting unresponsive subscriber", "subscriber_id", sub.ID)
		metrics.SubscriberEvictions.Inc()
		m.Unsubscribe(sub)
	}

	if sent > 0 {
		slog.Debug("Published event",
			"event_type", event.Header().EventType,
			"subscribers", sent)
	}
}

// Count returns the number of live subscribers.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// HandleConnection runs the full lifecycle of one subscriber connection:
// subscribe, welcome frame, then a read loop that detects disconnect.
// Blocks until the connection closes. Called by the WebSocket HTTP handler
// after the upgrade.
func (m *ConnectionManager) HandleConnection(ctx context.Context, conn *websocket.Conn, filter models.FilterCriteria) {
	sub, err := m.Subscribe(ctx, conn, filter)
	if err != nil {
		slog.Error("Welcome frame serialization failed", "error", err)
		_ = conn.Close(StatusInternalError, "Internal server error")
		return
	}
	defer m.Unsubscribe(sub)

	// Read loop — clients are not expected to send frames, but reading is
	// how disconnects surface.
	for {
		_, data, err := conn.Read(sub.ctx)
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "update_filter" {
			// Reserved for dynamic filter updates.
			slog.Info("Filter update requested", "subscriber_id", sub.ID, "message", string(data))
		}
	}
}

// Close evicts every subscriber with a normal closure. Used at shutdown.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	subs := make([]*Subscriber, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		subs = append(subs, sub)
	}
	m.subscribers = make(map[string]*Subscriber)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.close(websocket.StatusNormalClosure, "server shutting down")
	}
	metrics.ActiveSubscribers.Set(0)
}

// writeLoop drains the subscriber queue, writing each frame with a timeout.
// A failed write evicts the subscriber.
func (m *ConnectionManager) writeLoop(sub *Subscriber) {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case data := <-sub.queue:
			writeCtx, cancel := context.WithTimeout(sub.ctx, m.writeTimeout)
			err := sub.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Warn("Failed to send to subscriber", "subscriber_id", sub.ID, "error", err)
				metrics.SubscriberEvictions.Inc()
				m.Unsubscribe(sub)
				return
			}
			metrics.EventsDelivered.Inc()
		}
	}
}

// describeFilter renders a filter for log lines.
func describeFilter(fc models.FilterCriteria) string {
	if fc.IsEmpty() {
		return "no filter (all events)"
	}
	desc := ""
	if fc.ConversationID != nil {
		desc = "conversation_id=" + *fc.ConversationID
	}
	if fc.Workforce != nil {
		if desc != "" {
			desc += ", "
		}
		desc += "workforce=" + *fc.Workforce
	}
	return desc
}

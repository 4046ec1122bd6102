package events

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultFilterTTL is how long an observed filter value stays listed without
// being seen again.
const DefaultFilterTTL = 24 * time.Hour

// FilterRegistry tracks the distinct conversation IDs and workforce names
// observed in the event stream, each with its last-seen instant. Values
// expire lazily: every read sweeps entries older than the TTL first. There is
// no background timer — reads are frequent (UI polling) and the working set
// is small.
//
// Safe for concurrent use; a single mutex covers both maps.
type FilterRegistry struct {
	mu              sync.Mutex
	conversationIDs map[string]time.Time
	workforceNames  map[string]time.Time
	ttl             time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewFilterRegistry creates a registry with the given TTL; ttl <= 0 selects
// DefaultFilterTTL.
func NewFilterRegistry(ttl time.Duration) *FilterRegistry {
	if ttl <= 0 {
		ttl = DefaultFilterTTL
	}
	slog.Info("Filter registry initialized", "ttl", ttl)
	return &FilterRegistry{
		conversationIDs: make(map[string]time.Time),
		workforceNames:  make(map[string]time.Time),
		ttl:             ttl,
		now:             time.Now,
	}
}

// Register records the filter values of one event. The conversation ID is
// always tracked; the workforce name only when present and non-empty.
func (r *FilterRegistry) Register(conversationID string, workforceName *string) {
	if conversationID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if _, seen := r.conversationIDs[conversationID]; !seen {
		slog.Debug("Registered new conversation_id", "conversation_id", conversationID)
	}
	r.conversationIDs[conversationID] = now

	if workforceName != nil && *workforceName != "" {
		if _, seen := r.workforceNames[*workforceName]; !seen {
			slog.Debug("Registered new workforce_name", "workforce_name", *workforceName)
		}
		r.workforceNames[*workforceName] = now
	}
}

// ConversationIDs returns the sorted conversation IDs seen within the TTL
// window.
func (r *FilterRegistry) ConversationIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup()
	return sortedKeys(r.conversationIDs)
}

// WorkforceNames returns the sorted workforce names seen within the TTL
// window.
func (r *FilterRegistry) WorkforceNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup()
	return sortedKeys(r.workforceNames)
}

// Stats returns the current entry counts after eviction.
func (r *FilterRegistry) Stats() (conversationIDs, workforceNames int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanup()
	return len(r.conversationIDs), len(r.workforceNames)
}

// cleanup removes entries whose last-seen instant is at or before now − ttl.
// Callers hold the mutex.
func (r *FilterRegistry) cleanup() {
	cutoff := r.now().Add(-r.ttl)
	expiredConversations := evictOlder(r.conversationIDs, cutoff)
	expiredWorkforces := evictOlder(r.workforceNames, cutoff)
	if expiredConversations > 0 || expiredWorkforces > 0 {
		slog.Debug("Evicted expired filter values",
			"conversation_ids", expiredConversations,
			"workforce_names", expiredWorkforces,
			"ttl", r.ttl)
	}
}

func evictOlder(entries map[string]time.Time, cutoff time.Time) int {
	evicted := 0
	for key, seen := range entries {
		if !seen.After(cutoff) {
			delete(entries, key)
			evicted++
		}
	}
	return evicted
}

func sortedKeys(entries map[string]time.Time) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

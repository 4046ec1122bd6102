package preprocessor

import (
	"log/slog"
	"strings"
	"time"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

// spanNamePrefixes maps lower-cased span-name prefixes to event types.
// Evaluated in order; first match wins.
var spanNamePrefixes = []struct {
	prefixes  []string
	eventType string
}{
	{[]string{"before_agent"}, models.EventTypeAgentStart},
	{[]string{"after_agent"}, models.EventTypeAgentEnd},
	{[]string{"before_model", "before_llm"}, models.EventTypeLLMCallStart},
	{[]string{"after_model", "after_llm"}, models.EventTypeLLMCallEnd},
	{[]string{"on_model_error"}, models.EventTypeLLMCallError},
	{[]string{"before_tool"}, models.EventTypeToolCallStart},
	{[]string{"after_tool"}, models.EventTypeToolCallEnd},
	{[]string{"on_tool_error"}, models.EventTypeToolCallError},
}

// classifySpanName maps a span name to its event type, or "" when the span is
// not a communication event.
func classifySpanName(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range spanNamePrefixes {
		for _, p := range entry.prefixes {
			if strings.HasPrefix(lower, p) {
				return entry.eventType
			}
		}
	}
	return ""
}

// formatTimestamp converts a span start time in Unix nanoseconds to an
// ISO 8601 UTC string with a trailing Z. Whole-second instants render without
// a fractional part. Negative timestamps are rejected.
func formatTimestamp(unixNano int64, spanName string) (string, bool) {
	if unixNano < 0 {
		slog.Warn("Invalid timestamp in span", "span", spanName, "timestamp", unixNano)
		return "", false
	}
	t := time.Unix(0, unixNano).UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05") + "Z", true
	}
	return t.Format("2006-01-02T15:04:05.999999999") + "Z", true
}

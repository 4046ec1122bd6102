// Package preprocessor distills OTLP trace spans into communication events.
//
// Instrumented agent frameworks export ordinary OTLP spans; the subset
// relevant to agent communication is marked with the
// agent_communication_dashboard flag and carries conversation_id and
// agent_name attributes. The preprocessor selects those spans, classifies
// them by span-name prefix, and reconstructs the structured request,
// response and tool-call payloads from the flattened attribute keyspace.
//
// Processing never fails: spans that cannot be classified are dropped with a
// debug log, and malformed payload subtrees degrade to empty defaults.
package preprocessor

import (
	"log/slog"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

// workforceResourceAttribute is the resource-level attribute carrying the
// deployment workforce name.
const workforceResourceAttribute = "agentic_layer.workforce"

// Preprocess walks every span of an OTLP export request and returns the
// communication events derived from them, in encounter order. Spans without
// the dashboard flag, without the required identity attributes, or with an
// unrecognized name produce no event.
func Preprocess(req *coltracepb.ExportTraceServiceRequest) []models.CommunicationEvent {
	var events []models.CommunicationEvent
	spanCount := 0

	for _, resourceSpans := range req.GetResourceSpans() {
		workforce := resourceWorkforce(resourceSpans)
		for _, scopeSpans := range resourceSpans.GetScopeSpans() {
			for _, span := range scopeSpans.GetSpans() {
				spanCount++
				if event := processSpan(span, workforce); event != nil {
					events = append(events, event)
				}
			}
		}
	}

	slog.Debug("Preprocessed spans", "spans", spanCount, "events", len(events))
	return events
}

// resourceWorkforce reads the workforce name from the resource attributes.
// Returns nil when absent or empty.
func resourceWorkforce(rs *tracepb.ResourceSpans) *string {
	for _, kv := range rs.GetResource().GetAttributes() {
		if kv.GetKey() != workforceResourceAttribute {
			continue
		}
		if v, ok := decodeAnyValue(kv.GetValue()); ok {
			if name := asString(v); name != "" {
				return &name
			}
		}
	}
	return nil
}

// processSpan applies the selection predicates and builds the event for one
// span, or returns nil when the span is not a communication event.
func processSpan(span *tracepb.Span, workforce *string) models.CommunicationEvent {
	attrs := flattenAttributes(span.GetAttributes())

	if !isTruthy(attrs["agent_communication_dashboard"]) {
		slog.Debug("Skipping span: missing agent_communication_dashboard flag", "span", span.GetName())
		return nil
	}

	conversationID, agentName := attrs["conversation_id"], attrs["agent_name"]
	if !isTruthy(conversationID) || !isTruthy(agentName) {
		slog.Debug("Skipping span: missing required attributes",
			"span", span.GetName(),
			"has_conversation_id", isTruthy(conversationID),
			"has_agent_name", isTruthy(agentName))
		return nil
	}

	eventType := classifySpanName(span.GetName())
	if eventType == "" {
		slog.Debug("Skipping span: unrecognized communication event pattern", "span", span.GetName())
		return nil
	}

	timestamp, ok := formatTimestamp(int64(span.GetStartTimeUnixNano()), span.GetName())
	if !ok {
		return nil
	}

	base := models.BaseEvent{
		ActingAgent:    asString(agentName),
		ConversationID: asString(conversationID),
		Timestamp:      timestamp,
		WorkforceName:  workforce,
	}
	event := newEvent(eventType, base, attrs)

	slog.Debug("Created communication event",
		"event_type", event.Header().EventType,
		"acting_agent", base.ActingAgent,
		"conversation_id", base.ConversationID)
	return event
}

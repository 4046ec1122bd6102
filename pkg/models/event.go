// Package models defines the communication event model distilled from agent
// trace spans, the payload sub-structures reconstructed from flattened span
// attributes, and the per-subscriber filter criteria.
//
// Events form a discriminated union keyed on the event_type field. Each
// concrete event embeds BaseEvent so header fields serialize flattened at
// the top level of the event object, next to the kind-specific payload.
package models

// Event type discriminator values.
const (
	EventTypeAgentStart       = "agent_start"
	EventTypeAgentEnd         = "agent_end"
	EventTypeLLMCallStart     = "llm_call_start"
	EventTypeLLMCallEnd       = "llm_call_end"
	EventTypeLLMCallError     = "llm_call_error"
	EventTypeToolCallStart    = "tool_call_start"
	EventTypeToolCallEnd      = "tool_call_end"
	EventTypeToolCallError    = "tool_call_error"
	EventTypeInvokeAgentStart = "invoke_agent_start"
	EventTypeInvokeAgentEnd   = "invoke_agent_end"
)

// BaseEvent is the header shared by all communication events.
type BaseEvent struct {
	// ActingAgent is the agent acting in this event.
	ActingAgent string `json:"acting_agent"`
	// ConversationID identifies the conversation (UUID4 by convention,
	// not enforced here).
	ConversationID string `json:"conversation_id"`
	// Timestamp is the span start time as ISO 8601 UTC, e.g.
	// "2024-01-15T10:30:00Z".
	Timestamp string `json:"timestamp"`
	// EventType is the union discriminator.
	EventType string `json:"event_type"`
	// InvocationID identifies one agent turn; may be empty.
	InvocationID string `json:"invocation_id"`
	// WorkforceName is the agentic_layer.workforce resource attribute.
	// Nil (serialized as null) when the emitting process did not set it.
	WorkforceName *string `json:"workforce_name"`
}

// Header returns the shared event header. It makes every event type that
// embeds BaseEvent satisfy CommunicationEvent.
func (e *BaseEvent) Header() *BaseEvent { return e }

// CommunicationEvent is any of the nine event kinds. The fabric, the filter
// registry, and filter matching only need the shared header; the full payload
// travels through JSON serialization.
type CommunicationEvent interface {
	Header() *BaseEvent
}

// AgentEvent covers the header-only lifecycle kinds agent_start and agent_end.
type AgentEvent struct {
	BaseEvent
}

// LLMCallStartEvent is fired when an LLM call begins.
type LLMCallStartEvent struct {
	BaseEvent
	Model   string            `json:"model"`
	Content LlmRequestContent `json:"content"`
}

// LLMCallEndEvent is fired when an LLM call completes.
type LLMCallEndEvent struct {
	BaseEvent
	Content       LlmResponseContent `json:"content"`
	UsageMetadata UsageMetadata      `json:"usage_metadata"`
}

// LLMCallErrorEvent is fired when an LLM call fails.
type LLMCallErrorEvent struct {
	BaseEvent
	Model   string            `json:"model"`
	Content LlmRequestContent `json:"content"`
	Error   string            `json:"error"`
}

// ToolCallStartEvent is fired when a tool invocation begins.
type ToolCallStartEvent struct {
	BaseEvent
	ToolCall ToolCall `json:"tool_call"`
}

// ToolCallEndEvent is fired when a tool invocation completes.
type ToolCallEndEvent struct {
	BaseEvent
	ToolCall ToolCall       `json:"tool_call"`
	Response map[string]any `json:"response"`
}

// ToolCallErrorEvent is fired when a tool invocation fails.
type ToolCallErrorEvent struct {
	BaseEvent
	ToolCall ToolCall `json:"tool_call"`
	Error    string   `json:"error"`
}

// InvokeAgentStartEvent is a tool_call_start recognized as an agent-to-agent
// invocation.
type InvokeAgentStartEvent struct {
	ToolCallStartEvent
	InvokedAgent string `json:"invoked_agent"`
}

// InvokeAgentEndEvent is a tool_call_end recognized as an agent-to-agent
// invocation.
type InvokeAgentEndEvent struct {
	ToolCallEndEvent
	InvokedAgent string `json:"invoked_agent"`
}

package preprocessor

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

// isAgentToolCall reports whether a tool call is really an agent invocation.
//
// Two patterns exist in the wild: transfer_to_agent is the legacy agent
// handoff tool, and AgentTool sub-agent calls carry exactly one argument,
// args.request.
func isAgentToolCall(attrs map[string]any) bool {
	if stringAttr(attrs, "tool_name", "") == "transfer_to_agent" {
		return true
	}
	sawRequest := false
	for key := range attrs {
		if !strings.HasPrefix(key, "args.") {
			continue
		}
		if key != "args.request" {
			return false
		}
		sawRequest = true
	}
	return sawRequest
}

// invokedAgentName resolves the invoked agent for an agent tool call: the
// legacy pattern names it in args.agent_name; for AgentTool calls the tool
// name IS the agent.
func invokedAgentName(attrs map[string]any, toolName string) string {
	if toolName == "transfer_to_agent" {
		return extractInvokedAgent(attrs)
	}
	return toolName
}

// unwrapResponseText replaces a JSON-encoded response.text string with its
// parsed value. Strings that are not valid JSON stay as-is.
func unwrapResponseText(response map[string]any) {
	text, ok := response["text"].(string)
	if !ok {
		return
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		slog.Debug("Tool response text is not JSON, keeping raw string", "error", err)
		return
	}
	response["text"] = parsed
}

// newEvent builds the concrete event for a classified span. base carries the
// fully populated header except EventType, which is set here (tool-call kinds
// may upgrade to their invoke_agent variants).
func newEvent(eventType string, base models.BaseEvent, attrs map[string]any) models.CommunicationEvent {
	base.EventType = eventType
	base.InvocationID = stringAttr(attrs, "invocation_id", "")

	switch eventType {
	case models.EventTypeAgentStart, models.EventTypeAgentEnd:
		return &models.AgentEvent{BaseEvent: base}

	case models.EventTypeLLMCallStart:
		return &models.LLMCallStartEvent{
			BaseEvent: base,
			Model:     stringAttr(attrs, "model", ""),
			Content:   extractLlmRequestContent(attrs),
		}

	case models.EventTypeLLMCallEnd:
		return &models.LLMCallEndEvent{
			BaseEvent:     base,
			Content:       extractLlmResponseContent(attrs),
			UsageMetadata: extractUsageMetadata(attrs),
		}

	case models.EventTypeLLMCallError:
		return &models.LLMCallErrorEvent{
			BaseEvent: base,
			Model:     stringAttr(attrs, "model", ""),
			Content:   extractLlmRequestContent(attrs),
			Error:     stringAttr(attrs, "error", ""),
		}

	case models.EventTypeToolCallStart:
		toolCall := extractToolCall(attrs)
		if isAgentToolCall(attrs) {
			base.EventType = models.EventTypeInvokeAgentStart
			return &models.InvokeAgentStartEvent{
				ToolCallStartEvent: models.ToolCallStartEvent{BaseEvent: base, ToolCall: toolCall},
				InvokedAgent:       invokedAgentName(attrs, toolCall.ToolName),
			}
		}
		return &models.ToolCallStartEvent{BaseEvent: base, ToolCall: toolCall}

	case models.EventTypeToolCallEnd:
		toolCall := extractToolCall(attrs)
		response := extractToolResponse(attrs)
		unwrapResponseText(response)
		if isAgentToolCall(attrs) {
			base.EventType = models.EventTypeInvokeAgentEnd
			return &models.InvokeAgentEndEvent{
				ToolCallEndEvent: models.ToolCallEndEvent{BaseEvent: base, ToolCall: toolCall, Response: response},
				InvokedAgent:     invokedAgentName(attrs, toolCall.ToolName),
			}
		}
		return &models.ToolCallEndEvent{BaseEvent: base, ToolCall: toolCall, Response: response}

	case models.EventTypeToolCallError:
		return &models.ToolCallErrorEvent{
			BaseEvent: base,
			ToolCall:  extractToolCall(attrs),
			Error:     stringAttr(attrs, "error", ""),
		}
	}
	return nil
}

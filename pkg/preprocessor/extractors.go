package preprocessor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agentic-layer/agent-communication-dashboard/pkg/models"
)

// The instrumentation flattens structured LLM payloads into dotted attribute
// keys with array indices embedded in the path, e.g.
//
//	llm_request.content.parts.3.function_call.args.city = "Munich"
//
// The extractors below reconstruct the nested payload structures from that
// flat keyspace. They are total: malformed or missing attributes degrade to
// empty defaults, never errors.
var (
	patternRequestText         = regexp.MustCompile(`^llm_request\.content\.parts\.(\d+)\.text$`)
	patternRequestFuncResponse = regexp.MustCompile(`^llm_request\.content\.parts\.(\d+)\.function_response\.name$`)
	patternResponseText        = regexp.MustCompile(`^llm_response\.content\.parts\.(\d+)\.text$`)
	patternResponseFuncCall    = regexp.MustCompile(`^llm_response\.content\.parts\.(\d+)\.function_call\.name$`)
)

// extractToolCall builds a ToolCall from the tool_name attribute and every
// args.<key> attribute.
func extractToolCall(attrs map[string]any) models.ToolCall {
	tc := models.NewToolCall(stringAttr(attrs, "tool_name", ""))
	for key, value := range attrs {
		if suffix, ok := strings.CutPrefix(key, "args."); ok && suffix != "" {
			tc.Arguments[suffix] = value
		}
	}
	return tc
}

// extractToolResponse collects every tool_response.* attribute, keyed by the
// last dotted segment. Nested structure beyond one level is intentionally
// collapsed; keys sharing a last segment resolve last-write-wins.
func extractToolResponse(attrs map[string]any) map[string]any {
	response := map[string]any{}
	for key, value := range attrs {
		if !strings.HasPrefix(key, "tool_response.") {
			continue
		}
		segments := strings.Split(key, ".")
		last := segments[len(segments)-1]
		if last != "" {
			response[last] = value
		}
	}
	return response
}

// extractInvokedAgent reads the invoked agent name for legacy
// transfer_to_agent calls.
func extractInvokedAgent(attrs map[string]any) string {
	return stringAttr(attrs, "args.agent_name", "")
}

// indexed pairs a reconstructed part with its part index so output order does
// not depend on map iteration order.
type indexed[T any] struct {
	index int
	part  T
}

func sortByIndex[T any](parts []indexed[T]) {
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })
}

// extractLlmRequestContent reconstructs the request content: text parts and
// function responses, each emitted in ascending part-index order (text parts
// first, then tool responses).
func extractLlmRequestContent(attrs map[string]any) models.LlmRequestContent {
	content := models.NewLlmRequestContent()

	var texts []indexed[models.TextContent]
	var responses []indexed[models.ToolResponse]
	for key, value := range attrs {
		if !strings.HasPrefix(key, "llm_request.content.") {
			continue
		}
		if m := patternRequestText.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			texts = append(texts, indexed[models.TextContent]{
				index: idx,
				part:  models.TextContent{Text: asString(value)},
			})
			continue
		}
		if m := patternRequestFuncResponse.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			tr := models.NewToolResponse(asString(value))
			prefix := fmt.Sprintf("llm_request.content.parts.%s.function_response.response.", m[1])
			for subKey, subValue := range attrs {
				if suffix, ok := strings.CutPrefix(subKey, prefix); ok && suffix != "" {
					tr.Response[suffix] = subValue
				}
			}
			responses = append(responses, indexed[models.ToolResponse]{index: idx, part: tr})
			continue
		}
		if strings.HasSuffix(key, ".role") {
			content.Role = asString(value)
		}
	}

	sortByIndex(texts)
	sortByIndex(responses)
	for _, t := range texts {
		content.Content = append(content.Content, t.part)
	}
	for _, r := range responses {
		content.Content = append(content.Content, r.part)
	}
	return content
}

// extractLlmResponseContent reconstructs the response content: text parts
// (with their thought flag) and function calls, each emitted in ascending
// part-index order.
func extractLlmResponseContent(attrs map[string]any) models.LlmResponseContent {
	content := models.NewLlmResponseContent()

	var texts []indexed[models.TextContent]
	var calls []indexed[models.ToolCall]
	for key, value := range attrs {
		if !strings.HasPrefix(key, "llm_response.content.") {
			continue
		}
		if m := patternResponseText.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			thoughtKey := fmt.Sprintf("llm_response.content.parts.%s.thought", m[1])
			texts = append(texts, indexed[models.TextContent]{
				index: idx,
				part: models.TextContent{
					Text:    asString(value),
					Thought: boolAttr(attrs, thoughtKey, false),
				},
			})
			continue
		}
		if m := patternResponseFuncCall.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			tc := models.NewToolCall(asString(value))
			prefix := fmt.Sprintf("llm_response.content.parts.%s.function_call.args.", m[1])
			for subKey, subValue := range attrs {
				if suffix, ok := strings.CutPrefix(subKey, prefix); ok && suffix != "" {
					tc.Arguments[suffix] = subValue
				}
			}
			calls = append(calls, indexed[models.ToolCall]{index: idx, part: tc})
			continue
		}
		if strings.HasSuffix(key, ".role") {
			content.Role = asString(value)
		}
	}

	sortByIndex(texts)
	sortByIndex(calls)
	for _, t := range texts {
		content.Parts = append(content.Parts, t.part)
	}
	for _, c := range calls {
		content.Parts = append(content.Parts, c.part)
	}
	return content
}

// extractUsageMetadata copies the six llm_response.usage_metadata.* counters.
// No arithmetic; missing attributes default to zero.
func extractUsageMetadata(attrs map[string]any) models.UsageMetadata {
	return models.UsageMetadata{
		TotalTokens:         intAttr(attrs, "llm_response.usage_metadata.total_token_count", 0),
		PromptTokens:        intAttr(attrs, "llm_response.usage_metadata.prompt_token_count", 0),
		CandidateTokens:     intAttr(attrs, "llm_response.usage_metadata.candidates_token_count", 0),
		ThoughtsTokens:      intAttr(attrs, "llm_response.usage_metadata.thoughts_token_count", 0),
		ToolUsePromptTokens: intAttr(attrs, "llm_response.usage_metadata.tool_use_prompt_token_count", 0),
		CachedContentTokens: intAttr(attrs, "llm_response.usage_metadata.cached_content_token_count", 0),
	}
}

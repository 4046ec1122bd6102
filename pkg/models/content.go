package models

// RequestPart is one element of LlmRequestContent.Content.
// Concrete types: TextContent, ToolResponse.
//
// No discriminator tag is emitted in JSON — consumers distinguish the two
// shapes structurally by the presence of "tool_name".
type RequestPart interface {
	requestPart()
}

// ResponsePart is one element of LlmResponseContent.Parts.
// Concrete types: TextContent, ToolCall.
type ResponsePart interface {
	responsePart()
}

// TextContent is a plain text part of an LLM request or response.
type TextContent struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought"`
}

func (TextContent) requestPart()  {}
func (TextContent) responsePart() {}

// ToolCall describes a tool invocation requested by the model.
type ToolCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

func (ToolCall) responsePart() {}

// NewToolCall returns a ToolCall with a non-nil arguments map so it
// serializes as {} rather than null.
func NewToolCall(toolName string) ToolCall {
	return ToolCall{ToolName: toolName, Arguments: map[string]any{}}
}

// ToolResponse carries the result of an earlier tool call back to the model.
type ToolResponse struct {
	ToolName string         `json:"tool_name"`
	Response map[string]any `json:"response"`
}

func (ToolResponse) requestPart() {}

// NewToolResponse returns a ToolResponse with a non-nil response map.
func NewToolResponse(toolName string) ToolResponse {
	return ToolResponse{ToolName: toolName, Response: map[string]any{}}
}

// LlmRequestContent is the reconstructed content of an LLM request.
// Content preserves part order: text parts and tool responses, each in
// ascending part-index order.
type LlmRequestContent struct {
	Role    string        `json:"role"`
	Content []RequestPart `json:"content"`
}

// NewLlmRequestContent returns an empty request content with the default role.
func NewLlmRequestContent() LlmRequestContent {
	return LlmRequestContent{Role: "user", Content: []RequestPart{}}
}

// LlmResponseContent is the reconstructed content of an LLM response.
type LlmResponseContent struct {
	Role  string         `json:"role"`
	Parts []ResponsePart `json:"parts"`
}

// NewLlmResponseContent returns an empty response content with the default role.
func NewLlmResponseContent() LlmResponseContent {
	return LlmResponseContent{Role: "model", Parts: []ResponsePart{}}
}

// UsageMetadata holds the token accounting of one LLM call. Missing
// attributes default to zero; values are copied verbatim from the span.
type UsageMetadata struct {
	TotalTokens         int `json:"total_tokens"`
	PromptTokens        int `json:"prompt_tokens"`
	CandidateTokens     int `json:"candidate_tokens"`
	ThoughtsTokens      int `json:"thoughts_tokens"`
	ToolUsePromptTokens int `json:"tool_use_prompt_tokens"`
	CachedContentTokens int `json:"cached_content_tokens"`
}

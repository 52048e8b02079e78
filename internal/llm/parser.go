package llm

import (
	"regexp"
	"sort"
	"strings"
)

// Leading system prompt echoes some reasoning providers prepend to reasoning_content
var systemPromptArtifacts = []*regexp.Regexp{
	regexp.MustCompile(`(?is)^<\|system\|>.*?<\|/system\|>\s*`),
	regexp.MustCompile(`(?is)^<system>.*?</system>\s*`),
	regexp.MustCompile(`(?is)^\[SYSTEM\].*?\[/SYSTEM\]\s*`),
	regexp.MustCompile(`(?is)^System:.*?\n\n`),
}

// ParsedChunk is the useful part of a response or stream chunk
type ParsedChunk struct {
	Content          string
	ReasoningContent string
	ToolCalls        []ToolCall
	Complete         bool
}

// ResponseParser extracts content, reasoning and tool calls from responses.
// Reasoning content is only surfaced for reasoning models.
type ResponseParser struct {
	reasoning bool
}

// NewResponseParser creates a parser
func NewResponseParser(reasoning bool) *ResponseParser {
	return &ResponseParser{reasoning: reasoning}
}

// CleanReasoning strips system prompt artifacts from reasoning content
func (p *ResponseParser) CleanReasoning(content string) string {
	if content == "" {
		return content
	}
	for _, re := range systemPromptArtifacts {
		content = re.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// ParseStreamChunk parses a single streamed chunk
func (p *ResponseParser) ParseStreamChunk(chunk *StreamChunk) ParsedChunk {
	var result ParsedChunk
	if chunk == nil || len(chunk.Choices) == 0 {
		return result
	}
	choice := chunk.Choices[0]
	result.Content = choice.Delta.Content
	if p.reasoning && choice.Delta.ReasoningContent != "" {
		result.ReasoningContent = p.CleanReasoning(choice.Delta.ReasoningContent)
	}
	result.ToolCalls = choice.Delta.ToolCalls
	result.Complete = choice.FinishReason != nil
	return result
}

// ParseResponse parses a synchronous response
func (p *ResponseParser) ParseResponse(resp *Response) ParsedChunk {
	var result ParsedChunk
	if resp == nil || len(resp.Choices) == 0 {
		return result
	}
	msg := resp.Choices[0].Message
	result.Content = msg.Content
	if p.reasoning && msg.ReasoningContent != "" {
		result.ReasoningContent = p.CleanReasoning(msg.ReasoningContent)
	}
	result.ToolCalls = msg.ToolCalls
	result.Complete = true
	return result
}

// ToolCallAggregator merges streamed tool call fragments by index
type ToolCallAggregator struct {
	calls map[int]*ToolCall
}

// NewToolCallAggregator creates an empty aggregator
func NewToolCallAggregator() *ToolCallAggregator {
	return &ToolCallAggregator{calls: make(map[int]*ToolCall)}
}

// Add merges fragments. Fragments without an index belong to call 0.
func (a *ToolCallAggregator) Add(fragments []ToolCall) {
	for _, frag := range fragments {
		idx := 0
		if frag.Index != nil {
			idx = *frag.Index
		}
		call, ok := a.calls[idx]
		if !ok {
			call = &ToolCall{ID: frag.ID, Type: "function"}
			a.calls[idx] = call
		}
		if frag.ID != "" {
			call.ID = frag.ID
		}
		call.Function.Name += frag.Function.Name
		call.Function.Arguments += frag.Function.Arguments
	}
}

// Calls returns the merged calls ordered by index
func (a *ToolCallAggregator) Calls() []ToolCall {
	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		calls = append(calls, *a.calls[idx])
	}
	return calls
}

// HasCalls reports whether any fragment was added
func (a *ToolCallAggregator) HasCalls() bool {
	return len(a.calls) > 0
}

// Clear drops all fragments
func (a *ToolCallAggregator) Clear() {
	a.calls = make(map[int]*ToolCall)
}

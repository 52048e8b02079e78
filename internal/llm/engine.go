package llm

import (
	"context"
	"strings"

	"github.com/abhishek9sharma/sarathi/internal/config"
)

const (
	// MaxToolIterations bounds the model/tool round trips of one user turn
	MaxToolIterations = 10
	// DeniedToolResult is sent to the model when the user refuses a tool call
	DeniedToolResult = "Tool execution was denied by the user."
	// SafetyLimitMessage is emitted when MaxToolIterations is exhausted
	SafetyLimitMessage = "⚠️ Safety Limit reached (10 tool iterations)."
)

// ToolExecutor provides tool definitions and runs tool calls
type ToolExecutor interface {
	Definitions(names ...string) []ToolDefinition
	Call(ctx context.Context, name, args string) string
}

// EventType distinguishes engine events
type EventType int

const (
	// EventContent carries answer text
	EventContent EventType = iota
	// EventReasoning carries reasoning text of reasoning models
	EventReasoning
	// EventToolCall announces a tool call before it runs
	EventToolCall
	// EventToolResult carries a tool's output
	EventToolResult
)

// Event is emitted by Engine.RunStream
type Event struct {
	Type     EventType
	Content  string
	ToolName string
	ToolArgs string
}

// ConfirmFunc decides whether a tool call may run
type ConfirmFunc func(name, args string) bool

// EngineOptions configures an Engine
type EngineOptions struct {
	// SystemPrompt overrides prompts.<agent>
	SystemPrompt string
	// Tools names the tools the model may call
	Tools    []string
	Executor ToolExecutor
	Confirm  ConfirmFunc
}

// Engine runs a conversation in which the model may call tools
type Engine struct {
	client       *Client
	parser       *ResponseParser
	tools        []string
	executor     ToolExecutor
	confirm      ConfirmFunc
	systemPrompt string
	messages     []Message
}

// NewEngine creates an engine for client's agent
func NewEngine(cfg *config.Manager, client *Client, opts EngineOptions) *Engine {
	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" && cfg != nil {
		systemPrompt = cfg.Prompt(client.Agent())
	}

	e := &Engine{
		client:       client,
		parser:       NewResponseParser(client.Reasoning()),
		tools:        opts.Tools,
		executor:     opts.Executor,
		confirm:      opts.Confirm,
		systemPrompt: systemPrompt,
	}
	e.Reset()
	return e
}

// Client returns the underlying client
func (e *Engine) Client() *Client {
	return e.client
}

// SystemPrompt returns the prompt the conversation starts with
func (e *Engine) SystemPrompt() string {
	return e.systemPrompt
}

// Messages returns a copy of the conversation
func (e *Engine) Messages() []Message {
	return append([]Message(nil), e.messages...)
}

// SetMessages replaces the conversation, e.g. when resuming a saved session
func (e *Engine) SetMessages(messages []Message) {
	e.messages = append([]Message(nil), messages...)
}

// Reset drops the conversation, keeping the system prompt
func (e *Engine) Reset() {
	e.messages = nil
	if e.systemPrompt != "" {
		e.messages = append(e.messages, SystemMessage(e.systemPrompt))
	}
}

// Run sends input and returns the concatenated answer
func (e *Engine) Run(ctx context.Context, input string) (string, error) {
	var sb strings.Builder
	err := e.RunStream(ctx, input, func(ev Event) {
		if ev.Type == EventContent {
			sb.WriteString(ev.Content)
		}
	})
	return sb.String(), err
}

// RunStream sends input and emits events as the answer arrives. Tool calls are
// executed and their results fed back until the model answers without calling
// a tool or MaxToolIterations is reached.
func (e *Engine) RunStream(ctx context.Context, input string, onEvent func(Event)) error {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	e.messages = append(e.messages, UserMessage(input))

	streaming := e.client.Streaming()
	if e.client.Reasoning() && !e.client.StreamSet() {
		streaming = false
	}

	for range MaxToolIterations {
		var (
			more bool
			err  error
		)
		if streaming {
			more, err = e.streamIteration(ctx, onEvent)
		} else {
			more, err = e.syncIteration(ctx, onEvent)
		}
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}

	onEvent(Event{Type: EventContent, Content: SafetyLimitMessage})
	return nil
}

func (e *Engine) definitions() []ToolDefinition {
	if len(e.tools) == 0 || e.executor == nil {
		return nil
	}
	return e.executor.Definitions(e.tools...)
}

func (e *Engine) streamIteration(ctx context.Context, onEvent func(Event)) (bool, error) {
	aggregator := NewToolCallAggregator()
	var content strings.Builder

	err := e.client.Stream(ctx, e.messages, e.definitions(), func(chunk *StreamChunk) error {
		parsed := e.parser.ParseStreamChunk(chunk)
		if parsed.Content != "" {
			content.WriteString(parsed.Content)
			onEvent(Event{Type: EventContent, Content: parsed.Content})
		}
		if parsed.ReasoningContent != "" {
			onEvent(Event{Type: EventReasoning, Content: parsed.ReasoningContent})
		}
		if len(parsed.ToolCalls) > 0 {
			aggregator.Add(parsed.ToolCalls)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if aggregator.HasCalls() {
		e.processToolCalls(ctx, aggregator.Calls(), content.String(), onEvent)
		return true, nil
	}
	if content.Len() > 0 {
		e.messages = append(e.messages, Message{Role: RoleAssistant, Content: content.String()})
	}
	return false, nil
}

func (e *Engine) syncIteration(ctx context.Context, onEvent func(Event)) (bool, error) {
	resp, err := e.client.Chat(ctx, e.messages, e.definitions())
	if err != nil {
		return false, err
	}
	parsed := e.parser.ParseResponse(resp)

	if parsed.ReasoningContent != "" {
		onEvent(Event{Type: EventReasoning, Content: parsed.ReasoningContent})
	}
	if parsed.Content != "" {
		onEvent(Event{Type: EventContent, Content: parsed.Content})
	}

	if len(parsed.ToolCalls) > 0 {
		e.processToolCalls(ctx, parsed.ToolCalls, parsed.Content, onEvent)
		return true, nil
	}
	if parsed.Content != "" {
		e.messages = append(e.messages, Message{Role: RoleAssistant, Content: parsed.Content})
	}
	return false, nil
}

func (e *Engine) processToolCalls(ctx context.Context, calls []ToolCall, content string, onEvent func(Event)) {
	recorded := make([]ToolCall, len(calls))
	for i, call := range calls {
		call.Index = nil
		if call.Type == "" {
			call.Type = "function"
		}
		recorded[i] = call
	}
	e.messages = append(e.messages, Message{Role: RoleAssistant, Content: content, ToolCalls: recorded})

	for _, call := range recorded {
		name, args := call.Function.Name, call.Function.Arguments
		onEvent(Event{Type: EventToolCall, ToolName: name, ToolArgs: args})

		result := DeniedToolResult
		if e.confirm == nil || e.confirm(name, args) {
			result = e.callTool(ctx, name, args)
			onEvent(Event{Type: EventToolResult, ToolName: name, Content: result})
		}
		e.messages = append(e.messages, Message{
			Role:       RoleTool,
			ToolCallID: call.ID,
			Name:       name,
			Content:    result,
		})
	}
}

func (e *Engine) callTool(ctx context.Context, name, args string) string {
	if e.executor == nil {
		return "Error: Tool " + name + " not found."
	}
	return e.executor.Call(ctx, name, args)
}

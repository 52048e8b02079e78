package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeToolCall is a tool call the fake server asks the client to make
type FakeToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// FakeReply is one scripted answer from the fake chat-completion server
type FakeReply struct {
	// Status defaults to 200. Any other status returns Body as the error payload.
	Status           int
	Body             string
	Content          string
	ReasoningContent string
	ToolCalls        []FakeToolCall
	PromptTokens     int
	CompletionTokens int
}

// LLMServer is an OpenAI-compatible /chat/completions endpoint that replays
// scripted replies in order, repeating the last one when the script runs out.
// Streaming requests are answered as server-sent events.
type LLMServer struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []FakeReply
	requests []map[string]any
	headers  []http.Header
}

// NewLLMServer starts a fake server closed at the end of the test
func NewLLMServer(t *testing.T, replies ...FakeReply) *LLMServer {
	t.Helper()
	s := &LLMServer{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value to configure as a provider base_url
func (s *LLMServer) BaseURL() string {
	return s.URL + "/v1"
}

// Requests returns decoded request bodies in arrival order
func (s *LLMServer) Requests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests...)
}

// Headers returns request headers in arrival order
func (s *LLMServer) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

// CallCount returns the number of requests served
func (s *LLMServer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *LLMServer) next() FakeReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return FakeReply{Content: "ok"}
	}
	idx := len(s.requests) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return s.replies[idx]
}

func (s *LLMServer) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, body)
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	reply := s.next()
	if reply.Status != 0 && reply.Status != http.StatusOK {
		http.Error(w, reply.Body, reply.Status)
		return
	}

	if stream, _ := body["stream"].(bool); stream {
		writeStream(w, reply)
		return
	}
	writeJSON(w, reply)
}

func usageOf(reply FakeReply) map[string]any {
	if reply.PromptTokens == 0 && reply.CompletionTokens == 0 {
		return nil
	}
	return map[string]any{
		"prompt_tokens":     reply.PromptTokens,
		"completion_tokens": reply.CompletionTokens,
		"total_tokens":      reply.PromptTokens + reply.CompletionTokens,
	}
}

func writeJSON(w http.ResponseWriter, reply FakeReply) {
	message := map[string]any{"role": "assistant", "content": reply.Content}
	if reply.ReasoningContent != "" {
		message["reasoning_content"] = reply.ReasoningContent
	}
	if len(reply.ToolCalls) > 0 {
		calls := make([]map[string]any, len(reply.ToolCalls))
		for i, tc := range reply.ToolCalls {
			calls[i] = map[string]any{
				"id":       tc.ID,
				"type":     "function",
				"function": map[string]any{"name": tc.Name, "arguments": tc.Arguments},
			}
		}
		message["tool_calls"] = calls
	}

	resp := map[string]any{
		"choices": []any{map[string]any{"index": 0, "message": message, "finish_reason": "stop"}},
	}
	if usage := usageOf(reply); usage != nil {
		resp["usage"] = usage
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeStream(w http.ResponseWriter, reply FakeReply) {
	w.Header().Set("Content-Type", "text/event-stream")
	send := func(v any) {
		data, _ := json.Marshal(v)
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	}
	delta := func(d map[string]any) map[string]any {
		return map[string]any{"choices": []any{map[string]any{"index": 0, "delta": d}}}
	}

	// content arrives word by word
	for i, word := range strings.SplitAfter(reply.Content, " ") {
		if word == "" {
			continue
		}
		d := map[string]any{"content": word}
		if i == 0 {
			d["role"] = "assistant"
		}
		send(delta(d))
	}
	if reply.ReasoningContent != "" {
		send(delta(map[string]any{"reasoning_content": reply.ReasoningContent}))
	}

	// each tool call arrives in two fragments keyed by index
	for i, tc := range reply.ToolCalls {
		half := len(tc.Arguments) / 2
		send(delta(map[string]any{"tool_calls": []any{map[string]any{
			"index": i, "id": tc.ID, "type": "function",
			"function": map[string]any{"name": tc.Name, "arguments": tc.Arguments[:half]},
		}}}))
		send(delta(map[string]any{"tool_calls": []any{map[string]any{
			"index":    i,
			"function": map[string]any{"arguments": tc.Arguments[half:]},
		}}}))
	}

	send(map[string]any{"choices": []any{map[string]any{"index": 0, "delta": map[string]any{}, "finish_reason": "stop"}}})
	if usage := usageOf(reply); usage != nil {
		send(map[string]any{"choices": []any{}, "usage": usage})
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
}

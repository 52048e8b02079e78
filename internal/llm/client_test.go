package llm_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhishek9sharma/sarathi/internal/config"
	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/tui"
	"github.com/abhishek9sharma/sarathi/testhelpers"
)

func newConfig(t *testing.T, baseURL string, settings map[string]any) *config.Manager {
	t.Helper()
	m, err := config.New(config.Options{HomeDir: t.TempDir(), WorkDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, m.Set("providers.openai.base_url", baseURL, false))
	for k, v := range settings {
		require.NoError(t, m.Set(k, v, false))
	}
	return m
}

func fastClient(cfg *config.Manager, agent string, opts ...llm.Option) *llm.Client {
	opts = append([]llm.Option{llm.WithRetryDelay(time.Millisecond)}, opts...)
	return llm.NewClient(cfg, agent, opts...)
}

func TestCallModel(t *testing.T) {
	t.Setenv("SARATHI_OPENAI_API_KEY", "sk-test")
	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{
		Content:          "```\nfeat: add parser\n```",
		PromptTokens:     12,
		CompletionTokens: 4,
	})
	cfg := newConfig(t, server.BaseURL()+"/", nil)
	usage := llm.NewUsageTracker(nil)

	client := fastClient(cfg, "autocommit", llm.WithUsage(usage))
	require.Equal(t, config.AgentCommitGenerator, client.Agent())

	got, err := client.CallModel(context.Background(), "system prompt", "diff text")
	require.NoError(t, err)
	require.Equal(t, "feat: add parser", got)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	body := reqs[0]
	require.Equal(t, "gpt-4o-mini", body["model"])
	require.EqualValues(t, 500, body["max_tokens"])
	require.EqualValues(t, 1, body["n"])
	require.InDelta(t, 0.7, body["temperature"], 0.0001)
	require.NotContains(t, body, "stream_options")

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "diff text", messages[1].(map[string]any)["content"])

	headers := server.Headers()[0]
	require.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	require.Equal(t, "application/json", headers.Get("Content-Type"))

	totals := usage.Totals()
	require.Equal(t, 1, totals.Calls)
	require.Equal(t, 12, totals.InputTokens)
	require.Equal(t, 4, totals.OutputTokens)
}

func TestStreamOptionsOnlyForSupportedModels(t *testing.T) {
	t.Parallel()

	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Content: "hi"})
	cfg := newConfig(t, server.BaseURL(), map[string]any{"agents.chat.model": "llama3"})

	noOpts := fastClient(cfg, config.AgentChat)
	req := noOpts.NewRequest([]llm.Message{llm.UserMessage("hi")}, nil, true)
	require.Nil(t, req.StreamOptions)

	withOpts := fastClient(cfg, config.AgentCodeEditor)
	req = withOpts.NewRequest([]llm.Message{llm.UserMessage("hi")}, nil, true)
	require.NotNil(t, req.StreamOptions)
	require.True(t, req.StreamOptions.IncludeUsage)

	req = withOpts.NewRequest(nil, nil, false)
	require.Nil(t, req.StreamOptions)
}

func TestRetries(t *testing.T) {
	t.Parallel()

	server := testhelpers.NewLLMServer(t,
		testhelpers.FakeReply{Status: http.StatusTooManyRequests, Body: "slow down"},
		testhelpers.FakeReply{Status: http.StatusBadGateway, Body: "upstream"},
		testhelpers.FakeReply{Content: "recovered"},
	)
	cfg := newConfig(t, server.BaseURL(), nil)
	var out bytes.Buffer

	client := fastClient(cfg, config.AgentQAHelper, llm.WithSplog(tui.NewSplogWithWriter(&out)))
	got, err := client.CallModel(context.Background(), "sys", "q")
	require.NoError(t, err)
	require.Equal(t, "recovered", got)
	require.Equal(t, 3, server.CallCount())

	logged := out.String()
	require.Contains(t, logged, "Rate limited. Retrying in 1ms... (1/3)")
	require.Contains(t, logged, "LLM call failed:")
	require.Contains(t, logged, "Retrying in 2ms... (2/3)")
}

func TestRetriesExhausted(t *testing.T) {
	t.Parallel()

	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Status: http.StatusServiceUnavailable, Body: "down"})
	cfg := newConfig(t, server.BaseURL(), map[string]any{"core.llm_retries": 1})

	_, err := fastClient(cfg, config.AgentQAHelper).CallModel(context.Background(), "sys", "q")
	require.Error(t, err)

	var apiErr *sarathierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Equal(t, 2, server.CallCount())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Status: http.StatusUnauthorized, Body: "bad key"})
	cfg := newConfig(t, server.BaseURL(), nil)

	_, err := fastClient(cfg, config.AgentQAHelper).CallModel(context.Background(), "sys", "q")
	require.Error(t, err)
	require.False(t, errors.Is(err, sarathierrors.ErrRateLimited))
	require.Contains(t, err.Error(), "bad key")
	require.Equal(t, 1, server.CallCount())
}

func TestMissingBaseURL(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "", nil)
	_, err := fastClient(cfg, config.AgentQAHelper).CallModel(context.Background(), "sys", "q")
	require.ErrorIs(t, err, sarathierrors.ErrMissingBaseURL)
}

func TestEmptyChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	t.Cleanup(server.Close)
	cfg := newConfig(t, server.URL, nil)

	_, err := fastClient(cfg, config.AgentQAHelper).CallModel(context.Background(), "sys", "q")
	require.ErrorIs(t, err, sarathierrors.ErrEmptyResponse)
}

func TestStream(t *testing.T) {
	t.Parallel()

	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{
		Content:          "hello there world",
		PromptTokens:     7,
		CompletionTokens: 3,
	})
	cfg := newConfig(t, server.BaseURL(), nil)
	usage := llm.NewUsageTracker(nil)

	client := fastClient(cfg, config.AgentCodeEditor, llm.WithUsage(usage))
	var sb strings.Builder
	err := client.Stream(context.Background(), []llm.Message{llm.UserMessage("hi")}, nil, func(chunk *llm.StreamChunk) error {
		for _, choice := range chunk.Choices {
			sb.WriteString(choice.Delta.Content)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "hello there world", sb.String())

	body := server.Requests()[0]
	require.Equal(t, true, body["stream"])
	require.Equal(t, map[string]any{"include_usage": true}, body["stream_options"])

	totals := usage.Totals()
	require.Equal(t, 1, totals.Calls)
	require.Equal(t, 7, totals.InputTokens)
	require.Equal(t, 3, totals.OutputTokens)
}

func TestCompleteBatch(t *testing.T) {
	t.Parallel()

	server := testhelpers.NewLLMServer(t, testhelpers.FakeReply{Content: "summary"})
	cfg := newConfig(t, server.BaseURL(), nil)
	client := fastClient(cfg, config.AgentCommitGenerator)

	batches := make([][]llm.Message, 5)
	for i := range batches {
		batches[i] = []llm.Message{llm.UserMessage("diff")}
	}
	results := client.CompleteBatch(context.Background(), batches, 2, 100, 0.3)
	require.Len(t, results, 5)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, "summary", r.Content)
	}
	require.Equal(t, 5, server.CallCount())
	for _, body := range server.Requests() {
		require.EqualValues(t, 100, body["max_tokens"])
		require.InDelta(t, 0.3, body["temperature"], 0.0001)
	}
}

func TestCleanResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  fix: typo  ", "fix: typo"},
		{"think block", "<think>pondering\nmore</think>\nfeat: add cache", "feat: add cache"},
		{"fenced", "```text\nrefactor: split module\n```", "refactor: split module"},
		{"quoted", `"docs: update readme"`, "docs: update readme"},
		{"backticks", "`chore: bump deps`", "chore: bump deps"},
		{"unterminated think", "answer<think>never closed", "answer"},
		{"inner quotes kept", `say "hi" now`, `say "hi" now`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, llm.CleanResponse(tt.in))
		})
	}
}

func TestUsageSummary(t *testing.T) {
	t.Parallel()

	tracker := llm.NewUsageTracker(nil)
	require.Empty(t, tracker.Summary())

	require.NoError(t, tracker.Record("chat", "m", 2*time.Second, &llm.Usage{TotalTokens: 30, CompletionTokens: 10}))
	require.NoError(t, tracker.Record("chat", "m", 2*time.Second, nil))

	totals := tracker.Totals()
	require.Equal(t, 2, totals.Calls)
	require.Equal(t, 20, totals.InputTokens)
	require.Equal(t, 10, totals.OutputTokens)

	summary := tracker.Summary()
	require.Contains(t, summary, "📊 LLM USAGE STATISTICS")
	require.Contains(t, summary, "Total LLM Calls    : 2")
	require.Contains(t, summary, "Total Tokens       : 30")
	require.Contains(t, summary, "Total Time         : 4.00s")
	require.Contains(t, summary, "Output TPS (avg)   : 2.50 tokens/s")

	tracker.Reset()
	require.Empty(t, tracker.Summary())
}

type failingSink struct{ records []llm.UsageRecord }

func (s *failingSink) RecordUsage(r llm.UsageRecord) error {
	s.records = append(s.records, r)
	return errors.New("disk full")
}

func TestUsageSink(t *testing.T) {
	t.Parallel()

	sink := &failingSink{}
	tracker := llm.NewUsageTracker(sink)
	err := tracker.Record("qahelper", "gpt-4o-mini", time.Second, &llm.Usage{InputTokens: 5, OutputTokens: 2})
	require.Error(t, err)
	require.Equal(t, 1, tracker.Totals().Calls)
	require.Len(t, sink.records, 1)
	require.Equal(t, "qahelper", sink.records[0].Agent)
	require.Equal(t, 5, sink.records[0].InputTokens)
}

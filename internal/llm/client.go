package llm

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/siderolabs/go-retry/retry"

	"github.com/abhishek9sharma/sarathi/internal/config"
	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

const (
	// DefaultTemperature is used when the agent sets none
	DefaultTemperature = 0.7
	// DefaultRetryDelay is the wait before the first retry; it doubles after each one.
	DefaultRetryDelay = 2 * time.Second
	// OneShotMaxTokens caps CallModel answers
	OneShotMaxTokens = 500

	// upper bound for a whole retry sequence, attempts are counted separately
	retryWindow = 24 * time.Hour
)

// models known to accept stream_options
var streamOptionsModels = []string{"gpt-4o", "gpt-4-turbo", "o1", "o3"}

// Client sends chat-completion requests on behalf of one agent
type Client struct {
	agent        string
	agentCfg     config.AgentConfig
	providerName string
	provider     config.ProviderConfig
	core         config.CoreConfig
	model        string

	httpClient   *http.Client
	streamClient *http.Client
	usage        *UsageTracker
	splog        *tui.Splog
	retryDelay   time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithUsage records every call in tracker
func WithUsage(tracker *UsageTracker) Option {
	return func(c *Client) { c.usage = tracker }
}

// WithSplog sets the logger for retries and debug output
func WithSplog(splog *tui.Splog) Option {
	return func(c *Client) { c.splog = splog }
}

// WithRetryDelay sets the initial retry delay
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithHTTPClient replaces both the synchronous and the streaming HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.streamClient = hc
	}
}

// NewClient creates a client for agent using the current configuration.
// Legacy agent names are resolved.
func NewClient(cfg *config.Manager, agent string, opts ...Option) *Client {
	agent = config.ResolveAgentName(agent)
	agentCfg := cfg.AgentConfig(agent)
	providerName := agentCfg.ProviderName()
	provider, _ := cfg.ProviderConfig(providerName)
	core := cfg.Core()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !core.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via core.verify_ssl
	}

	c := &Client{
		agent:        agent,
		agentCfg:     agentCfg,
		providerName: providerName,
		provider:     provider,
		core:         core,
		model:        agentCfg.ModelName(),
		httpClient:   &http.Client{Transport: transport, Timeout: time.Duration(core.Timeout) * time.Second},
		streamClient: &http.Client{Transport: transport},
		retryDelay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.splog == nil {
		c.splog = tui.NewSplogWithWriter(io.Discard)
	}
	return c
}

// Agent returns the agent name
func (c *Client) Agent() string {
	return c.agent
}

// Model returns the model requests are sent to
func (c *Client) Model() string {
	return c.model
}

// SetModel overrides the model for this client only
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Streaming reports whether the agent streams responses
func (c *Client) Streaming() bool {
	return c.agentCfg.Streaming()
}

// StreamSet reports whether the agent configures stream explicitly
func (c *Client) StreamSet() bool {
	return c.agentCfg.StreamSet()
}

// Reasoning reports whether the agent uses a reasoning model
func (c *Client) Reasoning() bool {
	return c.agentCfg.ReasoningModel
}

// Temperature returns the agent's sampling temperature
func (c *Client) Temperature() float64 {
	return c.agentCfg.TemperatureOr(DefaultTemperature)
}

func (c *Client) endpoint() (string, error) {
	if c.provider.BaseURL == "" {
		return "", fmt.Errorf("%w for provider '%s'", sarathierrors.ErrMissingBaseURL, c.providerName)
	}
	return strings.TrimRight(c.provider.BaseURL, "/") + "/chat/completions", nil
}

func (c *Client) supportsStreamOptions() bool {
	model := strings.ToLower(c.model)
	for _, m := range streamOptionsModels {
		if strings.Contains(model, m) {
			return true
		}
	}
	return false
}

// NewRequest builds a request body for messages with the agent's settings
func (c *Client) NewRequest(messages []Message, tools []ToolDefinition, stream bool) Request {
	req := Request{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.Temperature(),
		Stream:      stream,
		Tools:       tools,
	}
	if stream && c.supportsStreamOptions() {
		req.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return req
}

// Chat sends a synchronous request
func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error) {
	return c.Do(ctx, c.NewRequest(messages, tools, false))
}

// CallModel sends a system prompt and a user message and returns the cleaned answer
func (c *Client) CallModel(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	req := c.NewRequest([]Message{SystemMessage(systemPrompt), UserMessage(userMsg)}, nil, false)
	req.MaxTokens = OneShotMaxTokens
	req.N = 1

	resp, err := c.Do(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", sarathierrors.ErrEmptyResponse
	}
	return CleanResponse(resp.Content()), nil
}

// Do sends a synchronous request with retries and records usage
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	req.Stream = false
	req.StreamOptions = nil

	var resp *Response
	err := c.withRetries(ctx, func(ctx context.Context) (bool, error) {
		start := time.Now()
		httpResp, err := c.post(ctx, c.httpClient, req)
		if err != nil {
			return false, err
		}
		defer httpResp.Body.Close()

		var decoded Response
		if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
			return false, fmt.Errorf("failed to decode LLM response: %w", err)
		}
		c.recordUsage(time.Since(start), decoded.Usage)
		resp = &decoded
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream sends a streaming request and calls onChunk for every decoded event.
// Returning an error from onChunk aborts the stream.
func (c *Client) Stream(ctx context.Context, messages []Message, tools []ToolDefinition, onChunk func(*StreamChunk) error) error {
	return c.DoStream(ctx, c.NewRequest(messages, tools, true), onChunk)
}

// DoStream is Stream for a prepared request. Failed attempts are retried only
// before the first chunk has been delivered.
func (c *Client) DoStream(ctx context.Context, req Request, onChunk func(*StreamChunk) error) error {
	req.Stream = true

	return c.withRetries(ctx, func(ctx context.Context) (bool, error) {
		start := time.Now()
		httpResp, err := c.post(ctx, c.streamClient, req)
		if err != nil {
			return false, err
		}
		defer httpResp.Body.Close()

		var usage Usage
		delivered := false
		err = parseStream(httpResp.Body, func(chunk *StreamChunk) error {
			if chunk.Usage != nil {
				if in := chunk.Usage.Input(); in > 0 {
					usage.PromptTokens = in
				}
				if out := chunk.Usage.Output(); out > 0 {
					usage.CompletionTokens = out
				}
			}
			delivered = true
			return onChunk(chunk)
		})
		if err != nil {
			return delivered, err
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		c.recordUsage(time.Since(start), &usage)
		return false, nil
	})
}

// parseStream reads server-sent events until [DONE] or EOF. Lines that are
// not data lines or do not decode are skipped.
func parseStream(r io.Reader, onChunk func(*StreamChunk) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if err := onChunk(&chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, req Request) (*http.Response, error) {
	url, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if c.core.Debug {
		pretty, _ := json.MarshalIndent(req, "", "  ")
		c.splog.Debug("--- DEBUG: LLM REQUEST (%s) ---\n%s\n--- END DEBUG ---", c.agent, pretty)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.provider.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.provider.APIKey)
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, sarathierrors.NewAPIError(resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return resp, nil
}

func (c *Client) recordUsage(elapsed time.Duration, usage *Usage) {
	if c.usage == nil {
		return
	}
	if err := c.usage.Record(c.agent, c.model, elapsed, usage); err != nil {
		c.splog.Debug("%v", err)
	}
}

// retryable reports whether a failed attempt may succeed when repeated
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, sarathierrors.ErrMissingBaseURL) {
		return false
	}
	var apiErr *sarathierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// withRetries runs attempt up to 1+core.llm_retries times. The delay starts at
// retryDelay and doubles. attempt returns final=true to stop retrying.
func (c *Client) withRetries(ctx context.Context, attempt func(context.Context) (final bool, err error)) error {
	maxRetries := max(c.core.LLMRetries, 0)
	delay := c.retryDelay
	tries := 0
	var lastErr error

	err := retry.Constant(retryWindow, retry.WithUnits(time.Millisecond)).RetryWithContext(ctx, func(ctx context.Context) error {
		tries++
		final, err := attempt(ctx)
		lastErr = err
		if err == nil || final || !retryable(err) || tries > maxRetries {
			return err
		}

		if errors.Is(err, sarathierrors.ErrRateLimited) {
			c.splog.Warn("Rate limited. Retrying in %s... (%d/%d)", formatDelay(delay), tries, maxRetries)
		} else {
			c.splog.Warn("LLM call failed: %v. Retrying in %s... (%d/%d)", err, formatDelay(delay), tries, maxRetries)
		}

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			return lastErr
		case <-time.After(delay):
		}
		delay *= 2
		return retry.ExpectedError(err)
	})
	if err != nil && lastErr != nil {
		// report the attempt's own error rather than the retryer's wrapping
		return lastErr
	}
	return err
}

func formatDelay(d time.Duration) string {
	if d >= time.Second && d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}

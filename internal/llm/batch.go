package llm

import (
	"context"

	"golang.org/x/sync/errgroup"

	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
)

// DefaultBatchConcurrency bounds CompleteBatch when no limit is given
const DefaultBatchConcurrency = 4

// Complete sends messages with an explicit token budget and temperature and
// returns the raw content of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	req := c.NewRequest(messages, nil, false)
	req.MaxTokens = maxTokens
	req.Temperature = temperature

	resp, err := c.Do(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", sarathierrors.ErrEmptyResponse
	}
	return resp.Content(), nil
}

// BatchResult is the outcome of one CompleteBatch item
type BatchResult struct {
	Content string
	Err     error
}

// CompleteBatch runs Complete for every message list with at most
// maxConcurrent requests in flight. Results keep the input order and a
// failing item does not cancel the others.
func (c *Client) CompleteBatch(ctx context.Context, batches [][]Message, maxConcurrent, maxTokens int, temperature float64) []BatchResult {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultBatchConcurrency
	}
	results := make([]BatchResult, len(batches))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for i, messages := range batches {
		g.Go(func() error {
			content, err := c.Complete(ctx, messages, maxTokens, temperature)
			results[i] = BatchResult{Content: content, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

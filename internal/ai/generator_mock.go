package ai

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator is a CommitMessageGenerator for tests. It returns a preset
// message or error without calling a model.
type MockGenerator struct {
	mu        sync.Mutex
	message   string
	err       error
	callCount int
}

// NewMockGenerator creates a MockGenerator returning message
func NewMockGenerator(message string) *MockGenerator {
	return &MockGenerator{message: message}
}

// GenerateCommitMessage implements CommitMessageGenerator.
func (m *MockGenerator) GenerateCommitMessage(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	if m.message == "" {
		return "", fmt.Errorf("no mock commit message set, use SetMessage()")
	}
	return m.message, nil
}

// SetMessage sets the message to return and clears any error.
func (m *MockGenerator) SetMessage(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.message = message
	m.err = nil
}

// SetError makes GenerateCommitMessage fail with err.
func (m *MockGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	m.message = ""
}

// CallCount returns how often GenerateCommitMessage was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

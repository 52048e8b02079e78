// Package errors provides sentinel errors and custom error types for sarathi.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common conditions
var (
	// ErrNoStagedChanges indicates that the index has nothing to commit
	ErrNoStagedChanges = errors.New("no staged changes found")

	// ErrNotGitRepo indicates that the working directory is not inside a git repository
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrMissingBaseURL indicates that a provider has no base_url configured
	ErrMissingBaseURL = errors.New("base_url not found in config")

	// ErrRateLimited indicates the provider answered with HTTP 429
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrToolNotFound indicates an unknown tool name
	ErrToolNotFound = errors.New("tool not found")

	// ErrIntegrityIssues indicates that a dependency check found unused or undeclared modules
	ErrIntegrityIssues = errors.New("dependency integrity issues found")

	// ErrEmptyResponse indicates the provider returned no choices
	ErrEmptyResponse = errors.New("no response from LLM provider")
)

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// APIError is a non-2xx answer from a chat-completion endpoint
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("LLM API returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("LLM API returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is returns true for ErrRateLimited when the status is 429
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, body string) *APIError {
	return &APIError{StatusCode: statusCode, Body: body}
}

// ProviderNotFoundError is returned when an agent references an unknown provider
type ProviderNotFoundError struct {
	Provider string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider %q is not configured", e.Provider)
}

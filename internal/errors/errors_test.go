package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	t.Run("429 matches ErrRateLimited", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("call failed: %w", NewAPIError(429, "slow down"))
		require.ErrorIs(t, err, ErrRateLimited)
		require.Contains(t, err.Error(), "429 Too Many Requests: slow down")
	})

	t.Run("400 is not retryable", func(t *testing.T) {
		t.Parallel()
		apiErr := NewAPIError(400, "")
		require.False(t, apiErr.Retryable())
		require.False(t, errors.Is(apiErr, ErrRateLimited))
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		t.Parallel()
		require.True(t, NewAPIError(503, "").Retryable())
	})
}

func TestGitCommandError(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 128")
	err := NewGitCommandError("git", []string{"diff", "--staged"}, "", "fatal: bad", inner)

	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "[diff --staged]")
	require.Contains(t, err.Error(), "stderr: fatal: bad")
}

package git

import (
	"context"
	"fmt"
	"strings"
)

// CommitOptions contains options for creating a commit
type CommitOptions struct {
	Message  string
	NoVerify bool
}

// Commit records the index with message and returns git's summary output
func (r *Repo) Commit(ctx context.Context, opts CommitOptions) (string, error) {
	if strings.TrimSpace(opts.Message) == "" {
		return "", fmt.Errorf("commit message is empty")
	}
	args := []string{"commit", "-m", opts.Message}
	if opts.NoVerify {
		args = append(args, "--no-verify")
	}
	out, err := r.runner.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return out, nil
}

// HeadSubject returns the subject line of the latest commit
func (r *Repo) HeadSubject(ctx context.Context) (string, error) {
	return r.runner.Run(ctx, "log", "-1", "--format=%s")
}

package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// TruncatedSuffix marks a diff cut short by FileDiff
const TruncatedSuffix = "\n... (truncated for brevity)"

// StagedFiles lists paths with changes in the index, sorted
func (r *Repo) StagedFiles() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	var files []string
	for path, st := range status {
		if st.Staging == gogit.Unmodified || st.Staging == gogit.Untracked {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// StagedDiff returns the unified diff of everything in the index
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	out, err := r.runner.RunRaw(ctx, "diff", "--staged")
	if err != nil {
		return "", fmt.Errorf("failed to get staged diff: %w", err)
	}
	return out, nil
}

// FileDiff returns the staged diff of one path, cut at maxChars when maxChars > 0
func (r *Repo) FileDiff(ctx context.Context, path string, maxChars int) (string, error) {
	out, err := r.runner.RunRaw(ctx, "diff", "--staged", "--", path)
	if err != nil {
		return "", fmt.Errorf("failed to get staged diff for %s: %w", path, err)
	}
	return Truncate(out, maxChars), nil
}

// HasStagedChanges reports whether the index differs from HEAD
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	out, err := r.runner.Run(ctx, "diff", "--cached", "--shortstat")
	if err != nil {
		return false, fmt.Errorf("failed to check staged changes: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// Status returns `git status --short`
func (r *Repo) Status(ctx context.Context) (string, error) {
	return r.runner.RunRaw(ctx, "status", "--short")
}

// Truncate cuts s to maxChars and appends TruncatedSuffix. maxChars <= 0 disables it.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + TruncatedSuffix
}

// Package ai generates commit messages from staged changes.
package ai

import (
	"context"
	"strings"

	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
)

// CommitMessageGenerator produces a commit message for the staged changes of a repository.
type CommitMessageGenerator interface {
	GenerateCommitMessage(ctx context.Context) (string, error)
}

// StagedChanges is the part of a git repository the generators read.
// *git.Repo implements it.
type StagedChanges interface {
	StagedFiles() ([]string, error)
	StagedDiff(ctx context.Context) (string, error)
	FileDiff(ctx context.Context, path string, maxChars int) (string, error)
}

// ModelCaller makes one-shot system+user calls. *llm.Client implements it.
type ModelCaller interface {
	CallModel(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// SingleShotGenerator sends the whole staged diff in one request.
type SingleShotGenerator struct {
	repo   StagedChanges
	caller ModelCaller
	prompt string
}

// NewSingleShotGenerator creates a generator using the given system prompt
func NewSingleShotGenerator(repo StagedChanges, caller ModelCaller, prompt string) *SingleShotGenerator {
	return &SingleShotGenerator{repo: repo, caller: caller, prompt: prompt}
}

// GenerateCommitMessage implements CommitMessageGenerator.
func (g *SingleShotGenerator) GenerateCommitMessage(ctx context.Context) (string, error) {
	diff, err := g.repo.StagedDiff(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(diff) == "" {
		return "", sarathierrors.ErrNoStagedChanges
	}

	msg, err := g.caller.CallModel(ctx, g.prompt, diff)
	if err != nil {
		return "", err
	}
	return CleanCommitMessage(msg), nil
}

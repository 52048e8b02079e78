package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sarathierrors "github.com/abhishek9sharma/sarathi/internal/errors"
	"github.com/abhishek9sharma/sarathi/internal/llm"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// Batching thresholds for the parallel analyzer
const (
	SmallFileThreshold = 500
	MaxBatchSize       = 3
	MaxConcurrent      = 4
	MaxDiffChars       = 2000

	fileSummaryTokens   = 100
	coordinatorTokens   = 200
	analysisTemperature = 0.5
)

// ErrNoSummaries is returned when every batch failed to analyze
var ErrNoSummaries = errors.New("no file could be analyzed")

// BatchCompleter runs chat completions. *llm.Client implements it.
type BatchCompleter interface {
	Complete(ctx context.Context, messages []llm.Message, maxTokens int, temperature float64) (string, error)
	CompleteBatch(ctx context.Context, batches [][]llm.Message, maxConcurrent, maxTokens int, temperature float64) []llm.BatchResult
}

// BatchAnalysis is the outcome of analyzing one batch of files
type BatchAnalysis struct {
	Files   []string
	Summary string
	Err     error
}

// ParallelAnalyzer summarizes each staged file (small files grouped) with
// concurrent requests and then merges the summaries into one commit message.
type ParallelAnalyzer struct {
	repo              StagedChanges
	client            BatchCompleter
	splog             *tui.Splog
	filePrompt        string
	coordinatorPrompt string
	maxConcurrent     int
}

// NewParallelAnalyzer creates an analyzer. filePrompt must contain {diff} and
// coordinatorPrompt {summaries}.
func NewParallelAnalyzer(repo StagedChanges, client BatchCompleter, splog *tui.Splog, filePrompt, coordinatorPrompt string) *ParallelAnalyzer {
	return &ParallelAnalyzer{
		repo:              repo,
		client:            client,
		splog:             splog,
		filePrompt:        filePrompt,
		coordinatorPrompt: coordinatorPrompt,
		maxConcurrent:     MaxConcurrent,
	}
}

// SetMaxConcurrent overrides the number of simultaneous requests
func (a *ParallelAnalyzer) SetMaxConcurrent(n int) {
	if n > 0 {
		a.maxConcurrent = n
	}
}

// CreateBatches groups diffs for analysis. Diffs shorter than
// SmallFileThreshold are collected MaxBatchSize at a time; larger diffs get
// a batch of their own. A partial batch of small files comes last.
func CreateBatches(diffs []FileDiff) [][]FileDiff {
	var batches [][]FileDiff
	var small []FileDiff
	for _, fd := range diffs {
		if len(fd.Diff) >= SmallFileThreshold {
			batches = append(batches, []FileDiff{fd})
			continue
		}
		small = append(small, fd)
		if len(small) >= MaxBatchSize {
			batches = append(batches, small)
			small = nil
		}
	}
	if len(small) > 0 {
		batches = append(batches, small)
	}
	return batches
}

// GenerateCommitMessage implements CommitMessageGenerator.
func (a *ParallelAnalyzer) GenerateCommitMessage(ctx context.Context) (string, error) {
	files, err := a.repo.StagedFiles()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", sarathierrors.ErrNoStagedChanges
	}
	a.splog.Info("📂 Analyzing %d file(s)...", len(files))

	diffs := make([]FileDiff, 0, len(files))
	for _, f := range files {
		diff, err := a.repo.FileDiff(ctx, f, MaxDiffChars)
		if err != nil {
			return "", err
		}
		diffs = append(diffs, FileDiff{Path: f, Diff: diff})
	}

	batches := CreateBatches(diffs)
	a.splog.Info("📦 Created %d batch(es) for parallel analysis", len(batches))

	results := a.AnalyzeBatches(ctx, batches)
	for _, r := range results {
		if r.Err != nil {
			a.splog.Warn("Error analyzing %v: %v", r.Files, r.Err)
		}
	}

	a.splog.Info("🔗 Coordinating final commit message...")
	return a.Coordinate(ctx, results)
}

// AnalyzeBatches summarizes every batch concurrently, keeping batch order
func (a *ParallelAnalyzer) AnalyzeBatches(ctx context.Context, batches [][]FileDiff) []BatchAnalysis {
	requests := make([][]llm.Message, len(batches))
	for i, batch := range batches {
		requests[i] = []llm.Message{llm.UserMessage(BuildFilePrompt(a.filePrompt, batch))}
	}

	completions := a.client.CompleteBatch(ctx, requests, a.maxConcurrent, fileSummaryTokens, analysisTemperature)

	results := make([]BatchAnalysis, len(batches))
	for i, batch := range batches {
		files := make([]string, len(batch))
		for j, fd := range batch {
			files[j] = fd.Path
		}
		results[i] = BatchAnalysis{Files: files, Err: completions[i].Err}
		if completions[i].Err == nil {
			results[i].Summary = strings.TrimSpace(completions[i].Content)
		}
	}
	return results
}

// Coordinate merges successful summaries into the final message
func (a *ParallelAnalyzer) Coordinate(ctx context.Context, results []BatchAnalysis) (string, error) {
	ok := false
	for _, r := range results {
		if r.Summary != "" {
			ok = true
			break
		}
	}
	if !ok {
		return "", ErrNoSummaries
	}

	prompt := BuildCoordinatorPrompt(a.coordinatorPrompt, results)
	msg, err := a.client.Complete(ctx, []llm.Message{llm.UserMessage(prompt)}, coordinatorTokens, analysisTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to coordinate commit message: %w", err)
	}
	return CleanCommitMessage(msg), nil
}

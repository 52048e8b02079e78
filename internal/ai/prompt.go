package ai

import (
	"fmt"
	"strings"
)

const (
	diffPlaceholder      = "{diff}"
	summariesPlaceholder = "{summaries}"
)

// FileDiff is the staged diff of one path
type FileDiff struct {
	Path string
	Diff string
}

// BuildFilePrompt fills the file analysis template for a batch. A single file
// is inserted as is; several files are joined as "File: <path>\n<diff>"
// separated by "\n---\n".
func BuildFilePrompt(template string, batch []FileDiff) string {
	if len(batch) == 1 {
		return strings.ReplaceAll(template, diffPlaceholder, batch[0].Diff)
	}
	parts := make([]string, len(batch))
	for i, fd := range batch {
		parts[i] = fmt.Sprintf("File: %s\n%s", fd.Path, fd.Diff)
	}
	return strings.ReplaceAll(template, diffPlaceholder, strings.Join(parts, "\n---\n"))
}

// BuildCoordinatorPrompt fills the coordination template with one
// "- <files>: <summary>" line per analyzed batch.
func BuildCoordinatorPrompt(template string, results []BatchAnalysis) string {
	var lines []string
	for _, r := range results {
		if r.Summary == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", strings.Join(r.Files, ", "), r.Summary))
	}
	return strings.ReplaceAll(template, summariesPlaceholder, strings.Join(lines, "\n"))
}

package ai

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/abhishek9sharma/sarathi/internal/llm"
)

// BodyWidth is the column at which commit body lines are wrapped
const BodyWidth = 72

// CleanCommitMessage strips model artifacts (think blocks, code fences,
// surrounding quotes) and wraps body lines at BodyWidth. The subject line is
// never wrapped.
func CleanCommitMessage(message string) string {
	message = llm.CleanResponse(message)
	if message == "" {
		return ""
	}

	lines := strings.Split(message, "\n")
	out := make([]string, 0, len(lines))
	out = append(out, strings.TrimRight(lines[0], " \t"))
	for _, line := range lines[1:] {
		out = append(out, wrapLine(strings.TrimRight(line, " \t"))...)
	}
	return strings.Join(out, "\n")
}

// wrapLine wraps one body line. Continuations of bullet items are indented to
// line up with the bullet text.
func wrapLine(line string) []string {
	if len(line) <= BodyWidth {
		return []string{line}
	}

	indent := ""
	trimmed := strings.TrimLeft(line, " ")
	lead := line[:len(line)-len(trimmed)]
	for _, bullet := range []string{"- ", "* "} {
		if strings.HasPrefix(trimmed, bullet) {
			indent = lead + strings.Repeat(" ", len(bullet))
			break
		}
	}
	if indent == "" {
		indent = lead
	}

	first := true
	var out []string
	for _, part := range strings.Split(wordwrap.WrapString(trimmed, uint(BodyWidth-len(indent))), "\n") {
		if first {
			out = append(out, lead+part)
			first = false
			continue
		}
		out = append(out, indent+part)
	}
	return out
}

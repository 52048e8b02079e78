package llm

import (
	"regexp"
	"strings"
)

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	openFence  = regexp.MustCompile("^```[\\w+-]*[ \\t]*\\n?")
	closeFence = regexp.MustCompile("\\n?```\\s*$")
	quotePairs = [][2]string{{`"`, `"`}, {"'", "'"}, {"`", "`"}, {"“", "”"}}
)

// CleanResponse removes reasoning blocks, a wrapping code fence and matching
// surrounding quotes from model output.
func CleanResponse(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	// an unterminated think block hides everything after it
	if i := strings.Index(strings.ToLower(s), "<think>"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = openFence.ReplaceAllString(s, "")
		s = closeFence.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
	}

	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
			break
		}
	}
	return s
}

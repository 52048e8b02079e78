package docgen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/go-wordwrap"

	"github.com/abhishek9sharma/sarathi/internal/llm"
)

// commentWidth is the wrap column for comment text, excluding the "// " prefix
const commentWidth = 77

var genericSubjects = []string{
	"this function", "the function", "this method", "the method", "this func", "func", "function", "method",
}

// Sanitize turns a model answer into doc comment lines for name (without the
// leading "// "). Code fences, comment markers and quotes are removed and the
// comment is made to start with the function name.
func Sanitize(answer, name string) []string {
	text := llm.CleanResponse(answer)
	text = strings.NewReplacer(`"""`, "", "```", "", `"`, "", "'", "").Replace(text)

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(strings.TrimLeft(line, "/"))
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	if len(paragraphs) == 0 {
		return nil
	}

	paragraphs[0] = withSubject(paragraphs[0], name)

	var lines []string
	for i, p := range paragraphs {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, strings.Split(wordwrap.WrapString(p, commentWidth), "\n")...)
	}
	return lines
}

// withSubject makes s start with name, following the Go doc convention.
func withSubject(s, name string) string {
	first, rest, _ := strings.Cut(s, " ")
	if strings.EqualFold(strings.TrimRight(first, ".,:;()"), name) {
		return strings.TrimSpace(name + " " + rest)
	}

	lower := strings.ToLower(s)
	for _, subj := range genericSubjects {
		if strings.HasPrefix(lower, subj+" ") {
			return name + s[len(subj):]
		}
	}
	return name + " " + lowerFirst(s)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	// Keep acronyms such as HTTP or JSON intact.
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

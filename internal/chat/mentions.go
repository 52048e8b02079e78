package chat

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/abhishek9sharma/sarathi/internal/tools"
)

var mentionPattern = regexp.MustCompile(`@([\w./-]+)`)

// ExpandMentions replaces every @path in input with the file's content.
// Missing, unreadable or sensitive files are left as written and reported
// through warn.
func ExpandMentions(input, root string, warn func(format string, args ...any)) string {
	return mentionPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := match[1:]
		if err := tools.CheckPath(path); err != nil {
			warn("Warning: %v", err)
			return match
		}

		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, path)
		}
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			warn("Warning: File not found: %s", path)
			return match
		}
		data, err := os.ReadFile(full)
		if err != nil {
			warn("Warning: Could not read %s: %v", path, err)
			return match
		}
		return "\n--- Context from " + path + " ---\n" + string(data) + "\n---------------------------------\n"
	})
}

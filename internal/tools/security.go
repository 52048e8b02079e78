package tools

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kballard/go-shellquote"
)

var sensitiveNames = map[string]bool{
	".netrc":           true,
	".git-credentials": true,
	"id_rsa":           true,
	"id_dsa":           true,
	"id_ecdsa":         true,
	"id_ed25519":       true,
}

// commands that dump the environment
var prohibitedCommands = map[string]bool{
	"env":      true,
	"printenv": true,
	"export":   true,
	"set":      true,
}

var commandSeparators = regexp.MustCompile(`[;&|()]+`)

// IsSensitivePath reports whether path names a file holding secrets:
// dotenv files, private keys and credential stores.
func IsSensitivePath(path string) bool {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(path)))
	switch {
	case strings.HasPrefix(base, ".env"):
		return true
	case strings.Contains(base, ".env."):
		return true
	case sensitiveNames[base]:
		return true
	case strings.HasSuffix(base, ".pem"):
		return true
	}
	return false
}

// CheckPath returns an error when path may not be read or written
func CheckPath(path string) error {
	if IsSensitivePath(path) {
		return fmt.Errorf("Access to sensitive file %s is prohibited.", path) //nolint:staticcheck // shown to the model verbatim
	}
	return nil
}

// CheckCommand returns an error when command would reveal secrets, either by
// printing the environment or by touching a sensitive file.
func CheckCommand(command string) error {
	words, err := shellquote.Split(command)
	if err != nil {
		words = strings.Fields(command)
	}

	atCommand := true
	for _, word := range words {
		for i, piece := range commandSeparators.Split(word, -1) {
			if i > 0 {
				atCommand = true
			}
			piece = strings.TrimLeft(piece, "<>0123456789")
			if piece == "" {
				continue
			}
			if atCommand && prohibitedCommands[filepath.Base(piece)] {
				return fmt.Errorf("Execution of '%s' is prohibited.", piece) //nolint:staticcheck // shown to the model verbatim
			}
			atCommand = false
			if IsSensitivePath(piece) || IsSensitivePath(strings.TrimPrefix(piece, "@")) {
				return fmt.Errorf("Access to sensitive file %s is prohibited.", piece) //nolint:staticcheck // shown to the model verbatim
			}
		}
		if commandSeparators.MatchString(word) && strings.TrimRight(word, ";&|()") != word {
			atCommand = true
		}
	}
	return nil
}

package utils

import (
	"io"
	"os"
	"strings"
)

// ReadFromStdin reads all content from standard input
func ReadFromStdin() (string, error) {
	return ReadPiped(os.Stdin)
}

// ReadPiped reads f to the end when it is a pipe or a non-empty file and
// returns "" for terminals, so callers never block waiting for typing.
func ReadPiped(f *os.File) (string, error) {
	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	// If it's a terminal, we don't want to block waiting for input
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}

	// If it's a regular file and it's empty, return empty (don't block)
	if stat.Mode().IsRegular() && stat.Size() == 0 {
		return "", nil
	}

	bytes, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytes)), nil
}

// IsInteractive checks if we're in an interactive terminal
func IsInteractive() bool {
	if os.Getenv("SARATHI_NON_INTERACTIVE") != "" || os.Getenv("SARATHI_TEST_NO_INTERACTIVE") != "" {
		return false
	}
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

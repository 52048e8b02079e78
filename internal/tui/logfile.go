package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns SARATHI_LOG_FILE when set, otherwise ~/.sarathi/logs/sarathi.log.
func GetLogFilePath() string {
	if customPath := os.Getenv("SARATHI_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "sarathi.log"
	}
	return filepath.Join(homeDir, ".sarathi", "logs", "sarathi.log")
}

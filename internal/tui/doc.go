// Package tui provides the terminal user interface for sarathi.
//
// It handles:
//   - Interactive prompts, selections and the chat line editor (bubbletea)
//   - User-facing logging with an optional rotating log file (Splog)
//   - Terminal styling, markdown rendering and spinners
package tui

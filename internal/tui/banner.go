package tui

import "strings"

// Banner returns the chariot logo shown when a chat session starts
func Banner() string {
	lines := []string{
		"",
		ColorYellow("     .."),
		ColorYellow("      |_0                  ") + ColorCyan(",~"),
		ColorYellow(`        |\_              `) + ColorCyan(`~/(\\`),
		ColorYellow("        |   /|~~~~~~") + ColorCyan("______~// @@"),
		ColorYellow(`        |\-/ |~~~~~~`) + ColorCyan("(=)===|(_|_"),
		ColorYellow("       /((+ )|      ") + ColorCyan(`|/\_  _/   \`),
		ColorYellow("          -'       ") + Bold(ColorCyan("/               S A R A T H I - Your AI Charioteer")),
		"",
	}
	return strings.Join(lines, "\n")
}

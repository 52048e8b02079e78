package main

import (
	"os"

	"github.com/abhishek9sharma/sarathi/internal/cli"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		tui.NewSplogWithWriter(os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/mcpserver"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
	"github.com/abhishek9sharma/sarathi/internal/tui"
)

// Options replaces the process environment of the command tree. Zero values
// fall back to the real home, working directory and standard streams.
type Options struct {
	HomeDir string
	WorkDir string
	In      io.Reader
	Out     io.Writer
	// Err receives output of commands that keep stdout for a protocol.
	Err io.Writer
}

type app struct {
	opts Options

	configPath string
	debug      bool
	noColor    bool
	showUsage  bool
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	return NewRootCmdWithOptions(version, commit, date, Options{})
}

// NewRootCmdWithOptions creates the root command with injected streams and
// directories.
func NewRootCmdWithOptions(version, commit, date string, opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	a := &app{opts: opts}
	mcpserver.Version = version

	rootCmd := &cobra.Command{
		Use:   "sarathi",
		Short: "Sarathi is a coding assistant for the command line",
		Long: `Sarathi is a coding assistant for the command line.

It writes commit messages, answers questions about your code, adds doc
comments, generates tests, chats with tool access and audits Go module
dependencies. Any OpenAI-compatible endpoint can serve the models.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor || os.Getenv("NO_COLOR") != "" {
				tui.DisableColors()
			}
		},
	}
	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)
	rootCmd.SetIn(opts.In)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Use this configuration file instead of the global and project files")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Print debug output and write ~/.sarathi/logs/sarathi.log")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&a.showUsage, "usage", false, "Print LLM usage for this run when the command finishes")

	rootCmd.AddCommand(a.newGitCmd())
	rootCmd.AddCommand(a.newAskCmd())
	rootCmd.AddCommand(a.newChatCmd())
	rootCmd.AddCommand(a.newDocstrgenCmd())
	rootCmd.AddCommand(a.newCodeCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(a.newModelCmd())
	rootCmd.AddCommand(a.newSBOMCmd())
	rootCmd.AddCommand(a.newMCPCmd())
	rootCmd.AddCommand(a.newUsageCmd())

	return rootCmd
}

// run builds a runtime context writing to stdout and passes it to fn
func (a *app) run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	return a.runTo(cmd, a.opts.Out, fn)
}

// runTo is run with the command output sent to out
func (a *app) runTo(cmd *cobra.Command, out io.Writer, fn func(ctx *runtime.Context) error) error {
	logFile := ""
	if a.debug || os.Getenv("SARATHI_LOG_FILE") != "" {
		logFile = tui.GetLogFilePath()
	}

	ctx, err := runtime.NewContext(cmd.Context(), runtime.Options{
		ConfigPath: a.configPath,
		HomeDir:    a.opts.HomeDir,
		WorkDir:    a.opts.WorkDir,
		Debug:      a.debug,
		LogFile:    logFile,
		Out:        out,
		In:         a.opts.In,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ctx.Close() }()

	err = fn(ctx)
	if a.showUsage {
		actions.PrintSessionUsage(ctx)
	}
	if err != nil {
		ctx.Splog.Debug("command failed: %v", err)
	}
	return err
}

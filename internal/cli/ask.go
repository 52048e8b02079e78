package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
	"github.com/abhishek9sharma/sarathi/internal/utils"
)

// newAskCmd creates the ask command
func (a *app) newAskCmd() *cobra.Command {
	var question string

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question; the agent may read the project to answer",
		Long: `Ask a question about programming or the current project.

The question comes from -q or, when piped, from standard input:
  git diff | sarathi ask`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if question == "" {
				piped, err := a.readInput()
				if err != nil {
					return err
				}
				question = piped
			}
			return a.run(cmd, func(ctx *runtime.Context) error {
				_, err := actions.AskAction(ctx, actions.AskOptions{Question: question})
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "The question to ask")

	return cmd
}

// readInput returns piped input, never blocking on a terminal
func (a *app) readInput() (string, error) {
	if f, ok := a.opts.In.(*os.File); ok {
		return utils.ReadPiped(f)
	}
	data, err := io.ReadAll(a.opts.In)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

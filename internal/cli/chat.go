package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newChatCmd creates the chat command
func (a *app) newChatCmd() *cobra.Command {
	var opts actions.ChatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with tool access",
		Long: `Start an interactive chat session in the current directory.

The assistant can read and edit files, inspect git state and run commands.
Writing files and running commands always asks for permission first.
Type /help inside the session for the slash commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				return actions.ChatAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "Send one message and exit")
	cmd.Flags().BoolVar(&opts.ListSessions, "sessions", false, "List saved chat sessions")
	cmd.Flags().Int64Var(&opts.Resume, "resume", 0, "Continue a saved session by id")

	return cmd
}

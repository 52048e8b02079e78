package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newGitCmd creates the git command group
func (a *app) newGitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git",
		Short: "Git helpers",
	}
	cmd.AddCommand(a.newAutocommitCmd())
	return cmd
}

// newAutocommitCmd creates the git autocommit command
func (a *app) newAutocommitCmd() *cobra.Command {
	var opts actions.AutocommitOptions

	cmd := &cobra.Command{
		Use:   "autocommit",
		Short: "Generate a commit message for the staged changes and commit",
		Long: `Generate a commit message for the staged changes and commit them.

The message is printed and you are asked to confirm before committing.
With --parallel every file is summarized separately and the summaries
are merged into one message, which suits large change sets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				return actions.AutocommitAction(ctx, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "Analyze files concurrently and merge the summaries")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Commit without asking for confirmation")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Only print the generated message")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "Skip git hooks when committing")
	cmd.Flags().BoolVarP(&opts.Edit, "edit", "e", false, "Edit the message in $EDITOR before committing")

	return cmd
}

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newCodeCmd creates the code command group
func (a *app) newCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Generate tests and edit code with an agent",
	}
	cmd.AddCommand(a.newGenTestCmd())
	cmd.AddCommand(a.newEditCmd())
	return cmd
}

// newGenTestCmd creates the code gentest command
func (a *app) newGenTestCmd() *cobra.Command {
	var opts actions.CodeOptions

	cmd := &cobra.Command{
		Use:   "gentest",
		Short: "Generate tests for a source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				_, err := actions.GenTestAction(ctx, opts)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Source file to test")
	cmd.Flags().StringVar(&opts.Framework, "framework", "testify", "Test framework to use")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// newEditCmd creates the code edit command
func (a *app) newEditCmd() *cobra.Command {
	var opts actions.CodeOptions

	cmd := &cobra.Command{
		Use:   "edit <request>",
		Short: "Change code according to a request",
		Long: `Change code according to a natural language request.

Files passed with -c are included in the prompt as context.
  sarathi code edit "rename Add to Sum" -c calc.go`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Request = strings.Join(args, " ")
			return a.run(cmd, func(ctx *runtime.Context) error {
				_, err := actions.EditAction(ctx, opts)
				return err
			})
		},
	}

	cmd.Flags().StringSliceVarP(&opts.ContextFiles, "context", "c", nil, "Files to include as context")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newDocstrgenCmd creates the docstrgen command
func (a *app) newDocstrgenCmd() *cobra.Command {
	var opts actions.DocstringsOptions

	cmd := &cobra.Command{
		Use:   "docstrgen",
		Short: "Write doc comments for functions that lack them",
		Long: `Write doc comments for Go functions and methods that lack them.

Pass a single file with -f or a directory with -d. Existing comments are
kept unless --overwrite is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				_, err := actions.DocstringsAction(ctx, opts)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Go file to document")
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory whose Go files to document")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace existing doc comments")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newSBOMCmd creates the sbom command group
func (a *app) newSBOMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sbom",
		Short: "Inspect the dependencies of a Go module",
		Long: `Inspect the dependencies of a Go module.

Each subcommand takes an optional module directory, defaulting to the
current one.`,
	}

	cmd.AddCommand(a.newSBOMImportsCmd())
	cmd.AddCommand(a.newSBOMGraphCmd())
	cmd.AddCommand(a.newSBOMCheckCmd())
	cmd.AddCommand(a.newSBOMRevdepsCmd())

	return cmd
}

// sbomCmd builds a subcommand whose optional argument is the module path
func (a *app) sbomCmd(use, short string, opts *actions.SBOMOptions, fn func(*runtime.Context, actions.SBOMOptions) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [path]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Path = args[0]
			}
			return a.run(cmd, func(ctx *runtime.Context) error {
				return fn(ctx, *opts)
			})
		},
	}
}

func (a *app) newSBOMImportsCmd() *cobra.Command {
	var opts actions.SBOMOptions
	cmd := a.sbomCmd("imports", "Map external libraries to the files importing them", &opts, actions.SBOMImportsAction)
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&opts.Remote, "remote", false, "Look up unknown licenses with the GitHub API")
	return cmd
}

func (a *app) newSBOMGraphCmd() *cobra.Command {
	var opts actions.SBOMOptions
	cmd := a.sbomCmd("depgraph", "Print the dependency tree of the imported modules", &opts, actions.SBOMGraphAction)
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "Only print the tree below this module")
	return cmd
}

func (a *app) newSBOMCheckCmd() *cobra.Command {
	var opts actions.SBOMOptions
	cmd := a.sbomCmd("check", "Compare go.mod requirements with the imports in use", &opts, actions.SBOMCheckAction)
	cmd.Flags().BoolVar(&opts.Fail, "fail", false, "Exit non-zero when problems are found")
	return cmd
}

func (a *app) newSBOMRevdepsCmd() *cobra.Command {
	var opts actions.SBOMOptions
	cmd := a.sbomCmd("revdeps", "List the modules that depend on a module", &opts, actions.SBOMRevdepsAction)
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "Module to look up")
	return cmd
}

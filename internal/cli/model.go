package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newModelCmd creates the model command
func (a *app) newModelCmd() *cobra.Command {
	var opts actions.ModelOptions

	cmd := &cobra.Command{
		Use:   "model [name]",
		Short: "Show or switch the models used by agents",
		Long: `Without arguments, print the model of every agent.
With a name, switch all agents (or the one given by --agent) to it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			return a.run(cmd, func(ctx *runtime.Context) error {
				return actions.ModelAction(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Agent, "agent", "a", "", "Only change this agent")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "Apply for this run only")

	return cmd
}

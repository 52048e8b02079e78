package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newUsageCmd creates the usage command
func (a *app) newUsageCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recorded LLM usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				return actions.UsageAction(ctx, reset)
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the recorded history")

	return cmd
}

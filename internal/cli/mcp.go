package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newMCPCmd creates the mcp command. Stdout carries the protocol, so all
// logging goes to stderr.
func (a *app) newMCPCmd() *cobra.Command {
	var allowSensitive bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the built-in tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTo(cmd, a.opts.Err, func(ctx *runtime.Context) error {
				return actions.MCPAction(ctx, allowSensitive)
			})
		},
	}

	cmd.Flags().BoolVar(&allowSensitive, "allow-sensitive", false, "Also expose tools that write files or run commands")

	return cmd
}

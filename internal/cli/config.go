package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhishek9sharma/sarathi/internal/actions"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// newConfigCmd creates the config command
func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect and change configuration",
		Long: `Create, inspect and change configuration.

Settings are merged from the built-in defaults, ~/.sarathi/config.yaml,
.sarathi.yaml in the project and environment variables such as
OPENAI_API_KEY and OPENAI_ENDPOINT_URL.

Examples:
  sarathi config init
  sarathi config set core.timeout 60
  sarathi config set agents.chat.model llama3`,
	}

	cmd.AddCommand(a.newConfigInitCmd())
	cmd.AddCommand(a.newConfigShowCmd())
	cmd.AddCommand(a.newConfigInfoCmd())
	cmd.AddCommand(a.newConfigSetCmd())

	return cmd
}

// newConfigInitCmd creates the config init command
func (a *app) newConfigInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				return actions.ConfigInitAction(ctx, path)
			})
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Where to write the file (default ~/.sarathi/config.yaml)")

	return cmd
}

// newConfigShowCmd creates the config show command
func (a *app) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, actions.ConfigShowAction)
		},
	}
}

// newConfigInfoCmd creates the config info command
func (a *app) newConfigInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "List the configuration files in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				actions.ConfigInfoAction(ctx)
				return nil
			})
		},
	}
}

// newConfigSetCmd creates the config set command
func (a *app) newConfigSetCmd() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx *runtime.Context) error {
				return actions.ConfigSetAction(ctx, args[0], args[1], noSave)
			})
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "Apply for this run only")

	return cmd
}

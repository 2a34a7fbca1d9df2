package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/anchorage/cmd/anchorage/handlers"
)

// Config returns the command group for managing the configuration file.
func Config(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the anchorage configuration file",
	}
	cmd.AddCommand(configInit(g))
	return cmd
}

func configInit(g *handlers.Globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the --config path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.InitConfig(g, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

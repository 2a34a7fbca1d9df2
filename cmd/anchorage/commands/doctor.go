package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/anchorage/cmd/anchorage/handlers"
)

// Doctor returns the command for checking the external tools anchorage runs.
func Doctor(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that docker-machine and docker are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), g)
		},
	}
}

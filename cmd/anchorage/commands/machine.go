package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/anchorage/cmd/anchorage/handlers"
)

// Machine returns the machine command group.
func Machine(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Manage individual machines",
	}
	cmd.AddCommand(machineCreate(g))
	return cmd
}

func machineCreate(g *handlers.Globals) *cobra.Command {
	var opts handlers.MachineCreateOptions

	cmd := &cobra.Command{
		Use:   "create NAME...",
		Short: "Create one or more machines",
		Long: `Create one or more machines with docker-machine.

All machines are created concurrently. A failing machine does not stop the
others; every failure is reported once all have finished.

Examples:
  # Create two machines
  anchorage machine create web-1 web-2

  # Print only the names of created machines
  anchorage machine create --quiet web-1 web-2

  # Show the commands without running them
  anchorage --dry-run machine create web-1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Names = args
			return handlers.CreateMachines(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Print only the names of created machines")
	addCredentialFlags(cmd, &opts.Credentials)

	return cmd
}

func addCredentialFlags(cmd *cobra.Command, creds *handlers.CredentialFlags) {
	cmd.Flags().StringVar(&creds.AccessKey, "amazonec2-access-key", "", "AWS access key (default: AWS_ACCESS_KEY_ID)")
	cmd.Flags().StringVar(&creds.SecretKey, "amazonec2-secret-key", "", "AWS secret key (default: AWS_SECRET_ACCESS_KEY)")
	cmd.Flags().StringVar(&creds.Profile, "aws-profile", "", "AWS shared config profile to resolve credentials from")
}

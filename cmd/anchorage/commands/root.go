// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/anchorage/cmd/anchorage/handlers"
	"github.com/imamik/anchorage/internal/config"
)

// Root returns the root command for the anchorage CLI.
//
// Flags shared by every subcommand are bound to one handlers.Globals value
// that the subcommands pass on to their handlers.
func Root() *cobra.Command {
	g := &handlers.Globals{}

	cmd := &cobra.Command{
		Use:           "anchorage",
		Short:         "Create docker-machine hosts and form docker swarm clusters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			g.Out = cmd.OutOrStdout()
			g.Err = cmd.ErrOrStderr()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.ConfigPath, "config", config.DefaultPath(), "Path to configuration file")
	flags.CountVarP(&g.Verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	flags.IntVar(&g.Workers, "workers", 0, "Maximum concurrently running commands (default: twice the CPU count)")
	flags.StringVar(&g.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	flags.BoolVar(&g.DryRun, "dry-run", false, "Print the commands that would run instead of running them")

	cmd.AddCommand(Machine(g))
	cmd.AddCommand(Cluster(g))
	cmd.AddCommand(Doctor(g))
	cmd.AddCommand(Config(g))
	cmd.AddCommand(Version())

	return cmd
}

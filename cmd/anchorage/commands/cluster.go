package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/anchorage/cmd/anchorage/handlers"
)

// Cluster returns the cluster command group.
func Cluster(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Manage swarm clusters",
	}
	cmd.AddCommand(clusterCreate(g))
	cmd.AddCommand(clusterList(g))
	cmd.AddCommand(clusterRemove(g))
	return cmd
}

// clusterCreate returns the command for forming a new swarm cluster.
//
// Flags:
//
//	--swarm-managers, -m: Number of swarm managers (at least 1)
//	--swarm-workers, -w: Number of swarm workers
//	--ceph, -c: Number of ceph machines, created without joining the swarm
//	--advertise-addr: Address the swarm advertises instead of the seed's private IP
func clusterCreate(g *handlers.Globals) *cobra.Command {
	var opts handlers.ClusterCreateOptions

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a swarm cluster",
		Long: `Create machines and form them into a docker swarm.

The first manager initializes the swarm. The other managers and all workers
join it once its join tokens are known. Ceph machines are created alongside
but do not join.

Machines are named NAME-manager-N, NAME-worker-N and NAME-ceph-N.

Examples:
  # Three managers and five workers
  anchorage cluster create prod -m 3 -w 5

  # Show the commands without running them
  anchorage --dry-run cluster create prod -m 1 -w 2 -c 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			return handlers.CreateCluster(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Managers, "swarm-managers", "m", 1, "Number of swarm managers")
	cmd.Flags().IntVarP(&opts.Workers, "swarm-workers", "w", 0, "Number of swarm workers")
	cmd.Flags().IntVarP(&opts.Ceph, "ceph", "c", 0, "Number of ceph machines")
	cmd.Flags().StringVar(&opts.AdvertiseAddress, "advertise-addr", "", "Swarm advertise address (default: the seed's private IP)")
	addCredentialFlags(cmd, &opts.Credentials)

	return cmd
}

func clusterList(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List recorded clusters",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ListClusters(g)
		},
	}
}

func clusterRemove(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a cluster's machines and its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.RemoveCluster(cmd.Context(), g, args[0])
		},
	}
}

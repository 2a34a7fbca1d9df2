package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/anchorage/internal/cluster"
	"github.com/imamik/anchorage/internal/config"
	"github.com/imamik/anchorage/internal/provisioning"
	"github.com/imamik/anchorage/internal/util/naming"
)

// ClusterCreateOptions are the arguments of `cluster create`.
type ClusterCreateOptions struct {
	Name             string
	Managers         int
	Workers          int
	Ceph             int
	AdvertiseAddress string
	Credentials      CredentialFlags
}

// CreateCluster handles the cluster create command.
//
// The cluster is formed in one task graph:
//  1. All machines are created concurrently
//  2. The first manager's docker environment is resolved
//  3. The swarm is initialized on it, advertising its private address
//  4. Manager and worker join tokens are read
//  5. Every other manager and worker joins
//
// Ceph machines are created but never join. Machines whose creation
// succeeded are recorded even when formation fails, so `cluster rm` can
// clean them up.
func CreateCluster(ctx context.Context, g *Globals, opts ClusterCreateOptions) error {
	if err := config.ValidateIdentifier(opts.Name); err != nil {
		return err
	}
	if err := config.ValidateClusterSize(opts.Managers, opts.Workers, opts.Ceph); err != nil {
		return err
	}

	store := newClusterStore()
	exists, err := store.Exists(opts.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", cluster.ErrExists, opts.Name)
	}

	s, err := newSession(g, false)
	if err != nil {
		return err
	}
	if err := s.applyCredentials(ctx, opts.Credentials); err != nil {
		return err
	}

	plan := provisioning.ClusterPlan{
		Managers: naming.NewNames(opts.Name, provisioning.SwarmManager.String(), nil, opts.Managers),
		Workers:  naming.NewNames(opts.Name, provisioning.SwarmWorker.String(), nil, opts.Workers),
		Ceph:     naming.NewNames(opts.Name, provisioning.CephNode.String(), nil, opts.Ceph),
	}
	c, err := s.builder(s.machineStore(), opts.AdvertiseAddress).BuildCluster(plan)
	if err != nil {
		return err
	}

	runErr := s.execute(ctx, fmt.Sprintf("Cluster %s created successfully!", opts.Name))
	if g.DryRun {
		return runErr
	}

	record := clusterRecord(opts.Name, c)
	if len(record.Machines()) == 0 {
		return runErr
	}
	if err := store.Save(record); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to record cluster: %w", err))
	}
	s.log.V(1).Info("Recorded cluster", "cluster", opts.Name, "path", store.Path(opts.Name))
	return runErr
}

// clusterRecord lists the machines of c whose creation succeeded.
func clusterRecord(name string, c *provisioning.Cluster) *cluster.Cluster {
	record := &cluster.Cluster{Name: name, CreatedAt: time.Now().UTC()}
	for _, m := range c.Machines {
		if !m.Create.Succeeded() {
			continue
		}
		switch m.Kind {
		case provisioning.SwarmManager:
			record.Managers = append(record.Managers, m.Name)
		case provisioning.SwarmWorker:
			record.Workers = append(record.Workers, m.Name)
		case provisioning.CephNode:
			record.Ceph = append(record.Ceph, m.Name)
		}
	}
	return record
}

// RemoveCluster handles the cluster rm command. The record is deleted only
// when every machine was removed.
func RemoveCluster(ctx context.Context, g *Globals, name string) error {
	if err := config.ValidateIdentifier(name); err != nil {
		return err
	}

	store := newClusterStore()
	record, err := store.Load(name)
	if err != nil {
		return err
	}

	s, err := newSession(g, false)
	if err != nil {
		return err
	}
	if _, err := s.builder(nil, "").RemoveMachines(record.Machines()...); err != nil {
		return err
	}
	if err := s.execute(ctx, fmt.Sprintf("Cluster %s removed", name)); err != nil {
		return err
	}
	if g.DryRun {
		return nil
	}
	return store.Delete(name)
}

// ListClusters handles the cluster ls command.
func ListClusters(g *Globals) error {
	names, err := newClusterStore().List()
	if err != nil {
		return err
	}
	out := g.stdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

package provisioning

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/imamik/anchorage/internal/machine"
	"github.com/imamik/anchorage/internal/task"
)

// ClusterPlan names the machines of a new cluster per kind. The first
// manager is the seed.
type ClusterPlan struct {
	Managers []string
	Workers  []string
	Ceph     []string
}

// Names returns the plan's machine names for kind.
func (p ClusterPlan) Names(kind NodeKind) []string {
	switch kind {
	case SwarmManager:
		return p.Managers
	case SwarmWorker:
		return p.Workers
	case CephNode:
		return p.Ceph
	default:
		return nil
	}
}

// Cluster is the admitted task graph of a cluster.
type Cluster struct {
	Machines     []*Machine
	Seed         *Machine
	SeedEnv      *task.Task
	Init         *task.Task
	ManagerToken *task.Task
	WorkerToken  *task.Task
	Joins        []*task.Task

	dryRun bool

	mu       sync.Mutex
	seedAddr string
	tokens   map[*task.Task]string
}

// SeedAddress returns the address the seed advertised, once swarm init has
// started. It is empty when no address was found.
func (c *Cluster) SeedAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seedAddr
}

// BuildCluster admits the full cluster formation graph.
func (b *Builder) BuildCluster(plan ClusterPlan) (*Cluster, error) {
	if len(plan.Managers) == 0 {
		return nil, ErrNoSeed
	}

	c := &Cluster{
		dryRun: b.opts.DryRun,
		tokens: make(map[*task.Task]string),
	}
	for _, kind := range NodeKinds() {
		machines, err := b.createNodes(kind, plan.Names(kind))
		if err != nil {
			return nil, err
		}
		c.Machines = append(c.Machines, machines...)
	}
	c.Seed = c.Machines[0]

	var err error
	if c.SeedEnv, err = b.Environment(c.Seed); err != nil {
		return nil, err
	}
	if c.Init, err = b.initSwarm(c); err != nil {
		return nil, err
	}
	if c.ManagerToken, err = b.joinToken(c, SwarmManager); err != nil {
		return nil, err
	}
	if c.WorkerToken, err = b.joinToken(c, SwarmWorker); err != nil {
		return nil, err
	}

	for _, m := range c.Machines[1:] {
		if !m.Kind.JoinsSwarm() {
			continue
		}
		join, err := b.join(c, m)
		if err != nil {
			return nil, err
		}
		c.Joins = append(c.Joins, join)
	}
	return c, nil
}

// initSwarm admits `docker swarm init` against the seed.
func (b *Builder) initSwarm(c *Cluster) (*task.Task, error) {
	t, err := b.newTask(
		[]string{b.opts.Docker, "swarm", "init"},
		"swarm init "+c.Seed.Name,
		task.WithPrepare(func(ctx context.Context, t *task.Task) error {
			if !c.Seed.Create.Succeeded() || !c.SeedEnv.Succeeded() {
				return task.ErrSkip
			}
			if err := b.applyEnvironment(t, c.Seed.Name, c.SeedEnv); err != nil {
				return err
			}

			addr := b.advertiseAddress(ctx, c.Seed.Name)
			c.mu.Lock()
			c.seedAddr = addr
			c.mu.Unlock()

			if addr == "" {
				if b.opts.DryRun {
					return nil
				}
				b.log.Info("warning: could not resolve a private address for the seed, initializing swarm without --advertise-addr", "machine", c.Seed.Name)
				return nil
			}
			t.AppendArgs("--advertise-addr", addr)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := b.sched.Admit(t, c.SeedEnv, c.Seed.Create); err != nil {
		return nil, fmt.Errorf("failed to admit swarm init: %w", err)
	}
	return t, nil
}

// joinToken admits `docker swarm join-token -q <role>` against the seed.
func (b *Builder) joinToken(c *Cluster, kind NodeKind) (*task.Task, error) {
	role := kind.String()
	t, err := b.newTask(
		[]string{b.opts.Docker, "swarm", "join-token", "-q", role},
		"join-token "+role,
		task.WithPrepare(func(_ context.Context, t *task.Task) error {
			if !c.Init.Succeeded() {
				return task.ErrSkip
			}
			return b.applyEnvironment(t, c.Seed.Name, c.SeedEnv)
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := b.sched.Admit(t, c.Init); err != nil {
		return nil, fmt.Errorf("failed to admit %s join token: %w", role, err)
	}
	return t, nil
}

// join admits the node's environment resolution and its swarm join.
func (b *Builder) join(c *Cluster, m *Machine) (*task.Task, error) {
	env, err := b.Environment(m)
	if err != nil {
		return nil, err
	}

	tokenTask := c.WorkerToken
	if m.Kind == SwarmManager {
		tokenTask = c.ManagerToken
	}

	t, err := b.newTask(
		[]string{b.opts.Docker, "swarm", "join"},
		"join "+m.Name,
		task.WithPrepare(func(_ context.Context, t *task.Task) error {
			if !env.Succeeded() || !tokenTask.Succeeded() {
				return task.ErrSkip
			}
			if err := b.applyEnvironment(t, m.Name, env); err != nil {
				return err
			}

			token := b.token(c, tokenTask)
			if token == "" {
				return ErrNoJoinToken
			}
			addr := c.SeedAddress()
			if addr == "" {
				if !c.dryRun {
					return fmt.Errorf("%w: %s", ErrNoSeedAddress, c.Seed.Name)
				}
				addr = c.Seed.Name
			}
			t.AppendArgs("--token", token, net.JoinHostPort(addr, strconv.Itoa(SwarmPort)))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := b.sched.Admit(t, env, tokenTask); err != nil {
		return nil, fmt.Errorf("failed to admit join of %s: %w", m.Name, err)
	}
	return t, nil
}

// applyEnvironment sets t's environment from the output of env. Outside dry
// run an empty environment is an error.
func (b *Builder) applyEnvironment(t *task.Task, name string, env *task.Task) error {
	vars := machine.ParseEnvironment(env.Stdout())
	if len(vars) == 0 {
		if b.opts.DryRun {
			return nil
		}
		return fmt.Errorf("%w for %s", ErrNoEnvironment, name)
	}
	t.SetEnv(vars)
	return nil
}

// advertiseAddress returns the configured advertise address or the seed's
// private address. Dry runs never consult machine records.
func (b *Builder) advertiseAddress(ctx context.Context, seed string) string {
	if b.opts.AdvertiseAddress != "" {
		return b.opts.AdvertiseAddress
	}
	if b.opts.DryRun || b.opts.Addresses == nil {
		return ""
	}
	addr, err := b.opts.Addresses.PrivateAddress(ctx, seed)
	if err != nil {
		b.log.V(1).Info("Private address lookup failed", "machine", seed, "error", err.Error())
		return ""
	}
	return addr
}

// token returns the join token printed by t, warning once about any
// unexpected extra output.
func (b *Builder) token(c *Cluster, t *task.Task) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token, ok := c.tokens[t]; ok {
		return token
	}

	token, extra := parseJoinToken(t.Stdout())
	for _, line := range extra {
		b.log.Info("warning: unexpected additional output in swarm join token response", "task", t.Label(), "line", line)
	}
	c.tokens[t] = token
	return token
}

// parseJoinToken returns the first non-blank line of out and any further
// non-blank lines.
func parseJoinToken(out string) (string, []string) {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], lines[1:]
}

package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/anchorage/internal/task"
)

// SwarmPort is the swarm manager port joining nodes connect to.
const SwarmPort = 2377

var (
	// ErrNoSeed is returned when a cluster plan has no manager.
	ErrNoSeed = errors.New("cluster requires at least one swarm manager")

	// ErrNoEnvironment is recorded when a machine's docker environment
	// resolved to nothing.
	ErrNoEnvironment = errors.New("no docker environment resolved")

	// ErrNoSeedAddress is recorded on join tasks when the seed's address is
	// unknown.
	ErrNoSeedAddress = errors.New("seed address is unknown")

	// ErrNoJoinToken is recorded on join tasks when the token output was empty.
	ErrNoJoinToken = errors.New("join token is empty")
)

// Admitter registers tasks with their predecessors.
type Admitter interface {
	Admit(t *task.Task, dependsOn ...*task.Task) error
}

// AddressResolver looks up a machine's private address.
type AddressResolver interface {
	PrivateAddress(ctx context.Context, name string) (string, error)
}

// Options configures a Builder.
type Options struct {
	// DryRun makes every task synthesize its command line instead of running.
	DryRun bool

	// MachineArgs are the docker-machine create flags placed before the name.
	MachineArgs []string

	// DockerMachine and Docker are the executables to run.
	DockerMachine string
	Docker        string

	// AdvertiseAddress is used for swarm init and joins. When empty the seed's
	// private address is read through Addresses.
	AdvertiseAddress string
	Addresses        AddressResolver

	// KillGrace is passed to every task.
	KillGrace time.Duration

	Log logr.Logger
}

// Builder creates tasks and admits them with their dependency edges.
type Builder struct {
	sched Admitter
	opts  Options
	log   logr.Logger
}

// NewBuilder returns a builder admitting into sched.
func NewBuilder(sched Admitter, opts Options) *Builder {
	if opts.DockerMachine == "" {
		opts.DockerMachine = "docker-machine"
	}
	if opts.Docker == "" {
		opts.Docker = "docker"
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = task.DefaultKillGrace
	}
	log := opts.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Builder{sched: sched, opts: opts, log: log}
}

// Machine is a cluster node scheduled for creation.
type Machine struct {
	Name   string
	Kind   NodeKind
	Create *task.Task
}

// CreateMachines admits one independent `docker-machine create` task per name.
func (b *Builder) CreateMachines(names ...string) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(names))
	for _, name := range names {
		args := append([]string{b.opts.DockerMachine, "create"}, b.opts.MachineArgs...)
		args = append(args, name)

		t, err := b.newTask(args, "create "+name)
		if err != nil {
			return nil, err
		}
		if err := b.sched.Admit(t); err != nil {
			return nil, fmt.Errorf("failed to admit creation of %s: %w", name, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// createNodes admits creation tasks for cluster nodes of one kind.
func (b *Builder) createNodes(kind NodeKind, names []string) ([]*Machine, error) {
	tasks, err := b.CreateMachines(names...)
	if err != nil {
		return nil, err
	}
	machines := make([]*Machine, len(tasks))
	for i, t := range tasks {
		machines[i] = &Machine{Name: names[i], Kind: kind, Create: t}
	}
	return machines, nil
}

// RemoveMachines admits one independent `docker-machine rm -y` task per name.
func (b *Builder) RemoveMachines(names ...string) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(names))
	for _, name := range names {
		t, err := b.newTask([]string{b.opts.DockerMachine, "rm", "-y", name}, "rm "+name)
		if err != nil {
			return nil, err
		}
		if err := b.sched.Admit(t); err != nil {
			return nil, fmt.Errorf("failed to admit removal of %s: %w", name, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Environment admits `docker-machine env <name>` after m's creation. It
// skips itself unless the creation succeeded.
func (b *Builder) Environment(m *Machine) (*task.Task, error) {
	t, err := b.newTask(
		[]string{b.opts.DockerMachine, "env", m.Name},
		"env "+m.Name,
		task.WithPrepare(func(context.Context, *task.Task) error {
			if !m.Create.Succeeded() {
				return task.ErrSkip
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := b.sched.Admit(t, m.Create); err != nil {
		return nil, fmt.Errorf("failed to admit environment of %s: %w", m.Name, err)
	}
	return t, nil
}

func (b *Builder) newTask(command []string, label string, opts ...task.Option) (*task.Task, error) {
	opts = append([]task.Option{
		task.WithLabel(label),
		task.WithDryRun(b.opts.DryRun),
		task.WithKillGrace(b.opts.KillGrace),
	}, opts...)
	t, err := task.New(command, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build task %q: %w", label, err)
	}
	return t, nil
}

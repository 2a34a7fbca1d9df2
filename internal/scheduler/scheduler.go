// Package scheduler drains a dependency graph of tasks on a bounded worker
// pool.
//
// Tasks are admitted together with the tasks they depend on. A task is handed
// to a worker once every predecessor is terminal. The scheduler only enforces
// ordering: a failed predecessor does not cancel its dependents, which decide
// for themselves through their Prepare hooks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/anchorage/internal/metrics"
	"github.com/imamik/anchorage/internal/task"
)

var (
	// ErrUnknownDependency is returned when a predecessor was not admitted first.
	ErrUnknownDependency = errors.New("dependency has not been admitted")

	// ErrAlreadyRunning is returned when the graph is changed or run again after Run.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNilTask is returned when admitting a nil task.
	ErrNilTask = errors.New("task is nil")

	// ErrDuplicateTask is returned when a task is admitted twice.
	ErrDuplicateTask = errors.New("task has already been admitted")

	// ErrNotRunning is returned when draining a scheduler that was never run.
	ErrNotRunning = errors.New("scheduler has not been run")
)

// DefaultWorkers returns the default worker ceiling.
func DefaultWorkers() int {
	return runtime.NumCPU() * 2
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers sets the maximum number of tasks held by workers at once.
// Values below one fall back to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		s.workers = n
	}
}

// WithLogger sets the logger for task lifecycle events.
func WithLogger(log logr.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithMetrics records task lifecycle metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scheduler) {
		s.metrics = r
	}
}

// WithOnComplete registers a hook called from the worker goroutine after each
// task becomes terminal. Calls may be concurrent.
func WithOnComplete(fn func(*task.Task)) Option {
	return func(s *Scheduler) {
		s.onComplete = fn
	}
}

// node is one admitted task and its position in the graph.
type node struct {
	task       *task.Task
	dependents []*node
	remaining  int
}

// Scheduler executes admitted tasks in dependency order.
type Scheduler struct {
	workers    int
	log        logr.Logger
	metrics    *metrics.Recorder
	onComplete func(*task.Task)

	mu      sync.Mutex
	nodes   []*node
	index   map[*task.Task]*node
	pending int
	ready   chan *node
	started bool

	finished chan struct{}
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		log:      logr.Discard(),
		index:    make(map[*task.Task]*node),
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = DefaultWorkers()
	}
	return s
}

// Workers returns the worker ceiling.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Admit registers t, which may start only after every task in dependsOn is
// terminal. Predecessors must have been admitted already.
func (s *Scheduler) Admit(t *task.Task, dependsOn ...*task.Task) error {
	if t == nil {
		return ErrNilTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyRunning
	}
	if _, ok := s.index[t]; ok {
		return fmt.Errorf("%s: %w", t.Label(), ErrDuplicateTask)
	}

	n := &node{task: t}
	seen := make(map[*node]bool, len(dependsOn))
	for _, dep := range dependsOn {
		pred, ok := s.index[dep]
		if !ok {
			label := "<nil>"
			if dep != nil {
				label = dep.Label()
			}
			return fmt.Errorf("%s depends on %s: %w", t.Label(), label, ErrUnknownDependency)
		}
		if seen[pred] {
			continue
		}
		seen[pred] = true
		n.remaining++
	}
	for pred := range seen {
		pred.dependents = append(pred.dependents, n)
	}

	s.nodes = append(s.nodes, n)
	s.index[t] = n
	return nil
}

// Len returns the number of admitted tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Run queues every task without predecessors and returns. Dependents are
// queued as their predecessors terminate. Tasks reached after ctx is done are
// cancelled instead of started.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.started = true
	s.pending = len(s.nodes)
	s.ready = make(chan *node, len(s.nodes))
	for _, n := range s.nodes {
		if n.remaining == 0 {
			s.ready <- n
		}
	}
	if s.pending == 0 {
		close(s.ready)
	}
	s.mu.Unlock()

	s.log.V(1).Info("Running task graph", "tasks", len(s.nodes), "workers", s.workers)

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	go func() {
		for n := range s.ready {
			g.Go(func() error {
				s.execute(ctx, n)
				return nil
			})
		}
		_ = g.Wait()
		close(s.finished)
	}()
	return nil
}

// DrainAndWait blocks until every admitted task is terminal and returns the
// tasks in admission order. It returns ErrNotRunning unless Run was called.
func (s *Scheduler) DrainAndWait() ([]*task.Task, error) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil, ErrNotRunning
	}

	<-s.finished

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]*task.Task, len(s.nodes))
	for i, n := range s.nodes {
		tasks[i] = n.task
	}
	return tasks, nil
}

// Execute runs the graph and waits for it to drain.
func (s *Scheduler) Execute(ctx context.Context) ([]*task.Task, error) {
	if err := s.Run(ctx); err != nil {
		return nil, err
	}
	return s.DrainAndWait()
}

// execute drives one task to a terminal state on the calling worker.
func (s *Scheduler) execute(ctx context.Context, n *node) {
	t := n.task
	log := s.log.WithValues("task", t.Label())

	if ctx.Err() != nil {
		t.Cancel()
		log.V(1).Info("Task cancelled before start")
	} else {
		s.metrics.TaskStarted()
		log.V(1).Info("Task started", "command", t.RedactedCommandLine())
		t.Start(ctx)
		<-t.Done()

		var elapsed time.Duration
		if !t.StartedAt().IsZero() {
			elapsed = t.FinishedAt().Sub(t.StartedAt())
		}
		outcome := t.Outcome()
		s.metrics.TaskFinished(string(outcome), elapsed)
		log.V(1).Info("Task terminated", "outcome", outcome, "disposition", t.Disposition().String(), "elapsed", elapsed)
	}

	if s.onComplete != nil {
		s.onComplete(t)
	}
	s.complete(n)
}

// complete releases n's dependents and closes the ready queue once the last
// task is terminal.
func (s *Scheduler) complete(n *node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dep := range n.dependents {
		dep.remaining--
		if dep.remaining == 0 {
			s.ready <- dep
		}
	}
	s.pending--
	if s.pending == 0 {
		close(s.ready)
	}
}

package task

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// DefaultKillGrace is how long a context-cancelled process gets between
// SIGTERM and SIGKILL.
const DefaultKillGrace = 10 * time.Second

// PrepareFunc runs when a task starts, before its command is launched.
//
// It is the data-extraction half of a dependency edge: predecessors are
// terminal by the time it runs, so it may read their output and adjust this
// task's arguments or environment. Returning ErrSkip finishes the task without
// launching it. Any other error is recorded as a launch failure.
type PrepareFunc func(ctx context.Context, t *Task) error

// Option configures a Task.
type Option func(*Task)

// WithLabel sets the human readable label. Defaults to the command line.
func WithLabel(label string) Option {
	return func(t *Task) {
		t.label = label
	}
}

// WithDryRun makes the task synthesize its output instead of running.
func WithDryRun(dryRun bool) Option {
	return func(t *Task) {
		t.dryRun = dryRun
	}
}

// WithEnv replaces the inherited environment with env.
func WithEnv(env map[string]string) Option {
	return func(t *Task) {
		t.env = copyEnv(env)
	}
}

// WithPrepare installs a hook that runs at start, before launch.
func WithPrepare(fn PrepareFunc) Option {
	return func(t *Task) {
		t.prepare = fn
	}
}

// WithKillGrace sets the delay between SIGTERM and SIGKILL when the start
// context is cancelled.
func WithKillGrace(d time.Duration) Option {
	return func(t *Task) {
		t.killGrace = d
	}
}

// Task is one external command execution.
type Task struct {
	label     string
	dryRun    bool
	prepare   PrepareFunc
	killGrace time.Duration

	mu          sync.Mutex
	command     []string
	env         map[string]string
	state       State
	skipped     bool
	cancelReq   bool
	cmd         *exec.Cmd
	stdout      bytes.Buffer
	stderr      bytes.Buffer
	disposition Disposition
	launchErr   error
	startedAt   time.Time
	finishedAt  time.Time
	done        chan struct{}

	launches atomic.Int32
}

// New builds a pending task for command, where command[0] is the executable.
func New(command []string, opts ...Option) (*Task, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrEmptyCommand
	}

	t := &Task{
		command:   append([]string(nil), command...),
		killGrace: DefaultKillGrace,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.label == "" {
		t.label = strings.Join(t.command, " ")
	}
	return t, nil
}

// Label returns the task's human readable label.
func (t *Task) Label() string {
	return t.label
}

// DryRun reports whether the task synthesizes its output.
func (t *Task) DryRun() bool {
	return t.dryRun
}

// Command returns a copy of the argument vector.
func (t *Task) Command() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.command...)
}

// CommandLine returns the space-joined argument vector.
func (t *Task) CommandLine() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.command, " ")
}

func (t *Task) String() string {
	return t.label
}

// AppendArgs adds arguments to the command. It has no effect once the
// command has been launched.
func (t *Task) AppendArgs(args ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd != nil || t.state.IsTerminal() {
		return
	}
	t.command = append(t.command, args...)
}

// SetEnv replaces the process environment. A nil map restores inheritance.
func (t *Task) SetEnv(env map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd != nil || t.state.IsTerminal() {
		return
	}
	t.env = copyEnv(env)
}

// Env returns a copy of the explicit environment, or nil when inherited.
func (t *Task) Env() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyEnv(t.env)
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done returns a channel closed once the task is Finished or Cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Launches returns how many times a launch was attempted.
func (t *Task) Launches() int {
	return int(t.launches.Load())
}

// Start moves the task to Executing and launches its command. It does not
// wait for the command to exit. Start is a no-op unless the task is Pending.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	if !t.transition(Executing) {
		t.mu.Unlock()
		return
	}
	t.startedAt = time.Now()
	t.mu.Unlock()

	if t.prepare != nil {
		if err := t.prepare(ctx, t); err != nil {
			t.mu.Lock()
			defer t.mu.Unlock()
			if errors.Is(err, ErrSkip) {
				t.skipped = true
			} else {
				t.launchErr = &LaunchError{Label: t.label, Err: err}
			}
			t.complete()
			return
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelReq {
		t.transition(Cancelled)
		return
	}

	t.launches.Add(1)
	if t.dryRun {
		t.stdout.WriteString(strings.Join(t.command, " "))
		t.disposition = Disposition{Status: 0, Reason: Exited}
		t.transition(Finished)
		return
	}

	// #nosec G204 - commands are assembled by the pipeline builder, not a shell
	cmd := exec.CommandContext(ctx, t.command[0], t.command[1:]...)
	cmd.Stdout = &t.stdout
	cmd.Stderr = &t.stderr
	if t.env != nil {
		cmd.Env = environ(t.env)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = t.killGrace

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			t.transition(Cancelled)
			return
		}
		t.launchErr = &LaunchError{Label: t.label, Err: err}
		t.transition(Finished)
		return
	}
	t.cmd = cmd

	go t.wait(ctx, cmd)
}

// wait observes process exit and records the disposition.
func (t *Task) wait(ctx context.Context, cmd *exec.Cmd) {
	err := cmd.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.disposition = dispositionOf(cmd, err)
	if ctx.Err() != nil {
		t.cancelReq = true
	}
	t.complete()
}

// Run starts the task and blocks until it terminates or ctx is done.
func (t *Task) Run(ctx context.Context) error {
	t.Start(ctx)
	return t.Wait(ctx)
}

// Wait blocks until the task is terminal or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel prevents a pending task from launching, or asks a running process to
// terminate. A running task becomes Cancelled once its exit is observed.
// Cancel is idempotent.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case Pending:
		t.transition(Cancelled)
	case Executing:
		t.cancelReq = true
		if t.cmd != nil && t.cmd.Process != nil {
			_ = t.cmd.Process.Signal(syscall.SIGTERM)
		}
	}
}

// Kill is the coercive follow-up to Cancel for processes ignoring SIGTERM.
func (t *Task) Kill() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Executing {
		return
	}
	t.cancelReq = true
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
}

// Output returns stdout followed by stderr. It returns the launch error if the
// command could not be started and ErrNotFinished before the task terminated.
func (t *Task) Output() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.IsTerminal() {
		return "", ErrNotFinished
	}
	if t.launchErr != nil {
		return "", t.launchErr
	}
	return t.stdout.String() + t.stderr.String(), nil
}

// Stdout returns captured standard output, empty before termination.
func (t *Task) Stdout() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.IsTerminal() {
		return ""
	}
	return t.stdout.String()
}

// Stderr returns captured standard error, empty before termination.
func (t *Task) Stderr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.IsTerminal() {
		return ""
	}
	return t.stderr.String()
}

// Disposition returns the exit disposition. It is only meaningful once the
// task is terminal.
func (t *Task) Disposition() Disposition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposition
}

// Err returns the recorded launch error, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.launchErr
}

// Skipped reports whether the task finished without launching because its
// Prepare hook short-circuited.
func (t *Task) Skipped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped
}

// Succeeded reports whether the task ran and exited with status 0.
// Skipped tasks did not run and are not reported as succeeded.
func (t *Task) Succeeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Finished && !t.skipped && t.launchErr == nil && t.disposition.Success()
}

// StartedAt returns when the task left Pending.
func (t *Task) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// FinishedAt returns when the task became terminal.
func (t *Task) FinishedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finishedAt
}

// complete moves an executing task to its terminal state. Caller holds t.mu.
func (t *Task) complete() {
	if t.cancelReq {
		t.transition(Cancelled)
		return
	}
	t.transition(Finished)
}

// transition applies a forward state change and signals completion exactly
// once. Caller holds t.mu.
func (t *Task) transition(to State) bool {
	if !canTransition(t.state, to) {
		return false
	}
	t.state = to
	if to.IsTerminal() {
		t.finishedAt = time.Now()
		t.cmd = nil
		close(t.done)
	}
	return true
}

func dispositionOf(cmd *exec.Cmd, err error) Disposition {
	ps := cmd.ProcessState
	if ps == nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ps = exitErr.ProcessState
		}
	}
	if ps == nil {
		return Disposition{Status: -1, Reason: Exited}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Disposition{Status: int(ws.Signal()), Reason: SignalTerminated}
	}
	return Disposition{Status: ps.ExitCode(), Reason: Exited}
}

// environ renders env as a sorted KEY=VALUE list.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func copyEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

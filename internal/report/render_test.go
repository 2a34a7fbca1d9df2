package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/anchorage/internal/task"
)

func finished(t *testing.T, args []string, opts ...task.Option) *task.Task {
	t.Helper()
	tk := newTask(t, args, opts...)
	require.NoError(t, tk.Run(context.Background()))
	return tk
}

func TestRenderer_Progress(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Progress(finished(t, []string{"docker-machine", "create", "--amazonec2-secret-key", "hunter2", "a-1"},
		task.WithDryRun(true), task.WithLabel("create a-1")))
	r.Progress(finished(t, []string{"docker", "swarm", "init"}, task.WithDryRun(true), task.WithLabel("swarm init a-1")))
	r.Progress(finished(t, []string{"sh", "-c", "echo Running pre-create checks...; echo; echo Docker is up and running!"},
		task.WithLabel("create a-2")))
	r.Progress(finished(t, []string{"sh", "-c", "echo SWMTKN-1-secret"}, task.WithLabel("join-token worker")))
	r.Progress(finished(t, []string{"sh", "-c", "echo partial; exit 2"}, task.WithLabel("env a-1")))
	r.Progress(finished(t, []string{"true"}, task.WithLabel("join a-3"), task.WithPrepare(func(context.Context, *task.Task) error {
		return task.ErrSkip
	})))

	assert.Equal(t,
		"[OK] Would create machine a-1\n"+
			"  would run: docker-machine create --amazonec2-secret-key **** a-1\n"+
			"[OK] swarm init a-1\n"+
			"  would run: docker swarm init\n"+
			"[OK] Created machine a-2\n"+
			"  Running pre-create checks...\n"+
			"  Docker is up and running!\n"+
			"[OK] join-token worker\n"+
			"[!!] env a-1 (exit status 2)\n"+
			"[--] join a-3 (skipped)\n",
		buf.String())
	assert.NotContains(t, buf.String(), "hunter2")
	assert.NotContains(t, buf.String(), "SWMTKN-1-secret")
}

func TestRenderer_QuietPrintsCreatedNames(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	r.SetQuiet(true)

	r.Progress(finished(t, []string{"create", "a-1"}, task.WithDryRun(true), task.WithLabel("create a-1")))
	r.Progress(finished(t, []string{"sh", "-c", "exit 1"}, task.WithLabel("create a-2")))
	r.Summary(Result{Success: true}, "Machines created successfully!")

	assert.Equal(t, "a-1\n", buf.String())
}

func TestRenderer_SummarySuccess(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewRenderer(&buf).Summary(Result{Success: true}, "Machines created successfully!")
	assert.Equal(t, "Machines created successfully!\n", buf.String())
}

func TestRenderer_SummaryFailure(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	res := Result{
		Entries: []Entry{
			{Label: "create a-1", Outcome: task.OutcomeSucceeded},
			{
				Label:       "create a-2",
				CommandLine: "docker-machine create --amazonec2-secret-key hunter2 a-2",
				Outcome:     task.OutcomeFailed,
				Disposition: task.Disposition{Status: 1},
				ExitCode:    1,
				Stderr:      "Error creating machine\nquota exceeded\n",
			},
			{
				Label:       "join a-3",
				CommandLine: "docker swarm join",
				Outcome:     task.OutcomeLaunchFailed,
				ExitCode:    ExitLaunchFailed,
				Err:         errors.New("seed address is unknown"),
			},
		},
		ExitCode: 1,
	}

	NewRenderer(&buf).Summary(res, "unused")
	out := buf.String()

	assert.Contains(t, out, "2 of 3 tasks failed:")
	assert.Contains(t, out, "[!!] create a-2\n")
	assert.Contains(t, out, "  command: docker-machine create --amazonec2-secret-key **** a-2\n")
	assert.Contains(t, out, "  result:  exit status 1\n")
	assert.Contains(t, out, "  Error creating machine\n  quota exceeded\n")
	assert.Contains(t, out, "[!!] join a-3\n")
	assert.Contains(t, out, "  error:   seed address is unknown\n")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "unused")
}

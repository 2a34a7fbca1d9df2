package task

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runToCompletion(t *testing.T, tk *Task) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, tk.Run(ctx))
}

func TestNew_EmptyCommand(t *testing.T) {
	t.Parallel()
	for _, cmd := range [][]string{nil, {}, {""}} {
		tk, err := New(cmd)
		assert.Nil(t, tk)
		assert.ErrorIs(t, err, ErrEmptyCommand)
	}
}

func TestNew_DefaultLabel(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"docker-machine", "create", "node-1"})
	require.NoError(t, err)
	assert.Equal(t, "docker-machine create node-1", tk.Label())
	assert.Equal(t, Pending, tk.State())

	tk, err = New([]string{"docker"}, WithLabel("swarm init"))
	require.NoError(t, err)
	assert.Equal(t, "swarm init", tk.Label())
}

func TestDryRun_OutputIsJoinedCommand(t *testing.T) {
	t.Parallel()
	tests := [][]string{
		{"create", "a-1"},
		{"docker-machine", "create", "--driver", "amazonec2", "node"},
		{"echo", "", "", "x"},
		{"echo", " ", ""},
		{"single"},
	}

	for _, cmd := range tests {
		tk, err := New(cmd, WithDryRun(true))
		require.NoError(t, err)
		runToCompletion(t, tk)

		out, err := tk.Output()
		require.NoError(t, err)
		assert.Equal(t, strings.Join(cmd, " "), out)
		assert.True(t, tk.Disposition().Success())
		assert.True(t, tk.Succeeded())
		assert.Equal(t, Finished, tk.State())
	}
}

func TestDryRun_RandomVectors(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))
	alphabet := []string{"", " ", "a", "--flag", "x=y", "\"q\"", "node-1"}

	for i := 0; i < 200; i++ {
		cmd := []string{"exe"}
		for n := rng.Intn(6); n > 0; n-- {
			cmd = append(cmd, alphabet[rng.Intn(len(alphabet))])
		}

		first, err := New(cmd, WithDryRun(true))
		require.NoError(t, err)
		second, err := New(cmd, WithDryRun(true))
		require.NoError(t, err)
		runToCompletion(t, first)
		runToCompletion(t, second)

		a, err := first.Output()
		require.NoError(t, err)
		b, err := second.Output()
		require.NoError(t, err)
		assert.Equal(t, strings.Join(cmd, " "), a)
		assert.Equal(t, a, b, "dry-run output must be identical across runs")
	}
}

func TestRun_CapturesOutput(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"sh", "-c", "echo out; echo err >&2"})
	require.NoError(t, err)
	runToCompletion(t, tk)

	assert.Equal(t, "out\n", tk.Stdout())
	assert.Equal(t, "err\n", tk.Stderr())
	out, err := tk.Output()
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", out)
	assert.True(t, tk.Succeeded())
	assert.Equal(t, 1, tk.Launches())
}

func TestRun_NonZeroExit(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"sh", "-c", "echo broken >&2; exit 3"})
	require.NoError(t, err)
	runToCompletion(t, tk)

	d := tk.Disposition()
	assert.Equal(t, 3, d.Status)
	assert.Equal(t, Exited, d.Reason)
	assert.False(t, tk.Succeeded())
	assert.Equal(t, Finished, tk.State())
	assert.Equal(t, "broken\n", tk.Stderr())
	assert.NoError(t, tk.Err())
}

func TestRun_LaunchFailure(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"anchorage-no-such-binary-xyz", "create"})
	require.NoError(t, err)
	runToCompletion(t, tk)

	assert.Equal(t, Finished, tk.State())
	assert.False(t, tk.Succeeded())

	var launchErr *LaunchError
	require.ErrorAs(t, tk.Err(), &launchErr)
	assert.Equal(t, "anchorage-no-such-binary-xyz create", launchErr.Label)

	_, err = tk.Output()
	require.Error(t, err, "output must not silently return empty on launch failure")
	assert.ErrorAs(t, err, &launchErr)
}

func TestRun_ExplicitEnvironment(t *testing.T) {
	t.Setenv("ANCHORAGE_TEST_INHERITED", "leaked")

	inherited, err := New([]string{"sh", "-c", `printf %s "$ANCHORAGE_TEST_INHERITED"`})
	require.NoError(t, err)
	runToCompletion(t, inherited)
	assert.Equal(t, "leaked", inherited.Stdout())

	explicit, err := New(
		[]string{"sh", "-c", `printf '%s|%s' "$GREETING" "$ANCHORAGE_TEST_INHERITED"`},
		WithEnv(map[string]string{"GREETING": "hello"}),
	)
	require.NoError(t, err)
	runToCompletion(t, explicit)
	assert.Equal(t, "hello|", explicit.Stdout())
}

func TestRun_LargeOutputDoesNotDeadlock(t *testing.T) {
	t.Parallel()
	const size = 4 << 20
	tk, err := New([]string{"sh", "-c", "head -c 4194304 /dev/zero; head -c 4194304 /dev/zero >&2"})
	require.NoError(t, err)
	runToCompletion(t, tk)

	assert.True(t, tk.Succeeded())
	assert.Len(t, tk.Stdout(), size)
	assert.Len(t, tk.Stderr(), size)
}

func TestOutput_BeforeFinish(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"sleep", "5"})
	require.NoError(t, err)

	_, err = tk.Output()
	assert.ErrorIs(t, err, ErrNotFinished)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tk.Start(ctx)
	_, err = tk.Output()
	assert.ErrorIs(t, err, ErrNotFinished)
	assert.Empty(t, tk.Stdout())

	tk.Cancel()
	require.NoError(t, tk.Wait(ctx))
}

func TestStart_OnlyOnce(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"create", "a-1"}, WithDryRun(true))
	require.NoError(t, err)

	tk.Start(context.Background())
	tk.Start(context.Background())
	runToCompletion(t, tk)

	assert.Equal(t, 1, tk.Launches())
}

func TestCancel_PendingNeverLaunches(t *testing.T) {
	t.Parallel()
	var prepared bool
	tk, err := New([]string{"sh", "-c", "exit 0"}, WithPrepare(func(_ context.Context, _ *Task) error {
		prepared = true
		return nil
	}))
	require.NoError(t, err)

	tk.Cancel()
	tk.Cancel()
	assert.Equal(t, Cancelled, tk.State())

	select {
	case <-tk.Done():
	default:
		t.Fatal("cancelled task should signal completion")
	}

	tk.Start(context.Background())
	assert.Equal(t, 0, tk.Launches())
	assert.False(t, prepared)
	assert.Equal(t, Cancelled, tk.State())
}

func TestCancel_Running(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"sleep", "30"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tk.Start(ctx)
	require.Equal(t, Executing, tk.State())

	tk.Cancel()
	require.NoError(t, tk.Wait(ctx))

	assert.Equal(t, Cancelled, tk.State())
	d := tk.Disposition()
	assert.Equal(t, SignalTerminated, d.Reason)
	assert.Equal(t, 15, d.Status)
	assert.False(t, tk.Succeeded())
}

func TestKill_IgnoredTerm(t *testing.T) {
	t.Parallel()
	tk, err := New(
		[]string{"sh", "-c", `trap "" TERM; echo ready; while :; do sleep 1; done`},
		WithKillGrace(200*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tk.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	tk.Cancel()
	select {
	case <-tk.Done():
		t.Fatal("process ignoring SIGTERM should still be running")
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, Executing, tk.State())

	tk.Kill()
	require.NoError(t, tk.Wait(ctx))
	assert.Equal(t, Cancelled, tk.State())
	assert.Equal(t, SignalTerminated, tk.Disposition().Reason)
	assert.Equal(t, 9, tk.Disposition().Status)
}

func TestContextCancel_TerminatesProcess(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"sleep", "30"}, WithKillGrace(100*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	tk.Start(ctx)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	require.NoError(t, tk.Wait(waitCtx))
	assert.Equal(t, Cancelled, tk.State())
}

func TestPrepare_Skip(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"docker", "swarm", "init"}, WithPrepare(func(_ context.Context, _ *Task) error {
		return ErrSkip
	}))
	require.NoError(t, err)
	runToCompletion(t, tk)

	assert.Equal(t, Finished, tk.State())
	assert.True(t, tk.Skipped())
	assert.False(t, tk.Succeeded())
	assert.Equal(t, 0, tk.Launches())
	assert.NoError(t, tk.Err())
}

func TestPrepare_ErrorIsLaunchFailure(t *testing.T) {
	t.Parallel()
	missing := errors.New("no seed address")
	tk, err := New([]string{"docker", "swarm", "join"}, WithDryRun(true), WithPrepare(func(_ context.Context, _ *Task) error {
		return missing
	}))
	require.NoError(t, err)
	runToCompletion(t, tk)

	assert.ErrorIs(t, tk.Err(), missing)
	_, err = tk.Output()
	assert.ErrorIs(t, err, missing)
	assert.Equal(t, 0, tk.Launches())
	assert.False(t, tk.Skipped())
}

func TestPrepare_MutatesCommandAndEnv(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"docker", "swarm", "init"}, WithDryRun(true), WithPrepare(func(_ context.Context, tk *Task) error {
		tk.AppendArgs("--advertise-addr", "10.0.0.5")
		tk.SetEnv(map[string]string{"DOCKER_HOST": "tcp://10.0.0.5:2376"})
		return nil
	}))
	require.NoError(t, err)
	runToCompletion(t, tk)

	out, err := tk.Output()
	require.NoError(t, err)
	assert.Equal(t, "docker swarm init --advertise-addr 10.0.0.5", out)
	assert.Equal(t, map[string]string{"DOCKER_HOST": "tcp://10.0.0.5:2376"}, tk.Env())

	tk.AppendArgs("--ignored")
	assert.Equal(t, "docker swarm init --advertise-addr 10.0.0.5", tk.CommandLine())
}

func TestTimestamps(t *testing.T) {
	t.Parallel()
	tk, err := New([]string{"create", "a-1"}, WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, tk.StartedAt().IsZero())

	runToCompletion(t, tk)
	assert.False(t, tk.StartedAt().IsZero())
	assert.False(t, tk.FinishedAt().Before(tk.StartedAt()))
}

func TestCanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to State
		want     bool
	}{
		{Pending, Executing, true},
		{Pending, Cancelled, true},
		{Pending, Finished, false},
		{Executing, Finished, true},
		{Executing, Cancelled, true},
		{Executing, Pending, false},
		{Finished, Executing, false},
		{Finished, Cancelled, false},
		{Cancelled, Pending, false},
		{Cancelled, Finished, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestDisposition_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "exit status 2", Disposition{Status: 2}.String())
	assert.Equal(t, "terminated by signal 9", Disposition{Status: 9, Reason: SignalTerminated}.String())
	assert.False(t, Disposition{Status: 0, Reason: SignalTerminated}.Success())
}

// Package report classifies drained tasks into one run result and renders
// progress and summaries for the terminal.
package report

import (
	"github.com/imamik/anchorage/internal/task"
)

// Exit codes for tasks that did not produce an exit status of their own.
const (
	ExitLaunchFailed = 127
	ExitCancelled    = 130
	ExitUnfinished   = 1
)

// Entry is the classified result of one task.
type Entry struct {
	Label       string
	CommandLine string
	Outcome     task.Outcome
	Disposition task.Disposition
	ExitCode    int
	DryRun      bool
	Stdout      string
	Stderr      string
	Err         error
}

// Failed reports whether the entry counts against overall success. Skipped
// tasks are a vacuous success.
func (e Entry) Failed() bool {
	return e.ExitCode != 0
}

// Result is the aggregated outcome of a run.
type Result struct {
	// Entries are in admission order.
	Entries []Entry

	// Success is true iff no entry failed.
	Success bool

	// ExitCode is the first non-zero entry exit code, else 0.
	ExitCode int
}

// Failures returns the failed entries in admission order.
func (r Result) Failures() []Entry {
	var failed []Entry
	for _, e := range r.Entries {
		if e.Failed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// Aggregate classifies tasks, which must all be terminal.
func Aggregate(tasks []*task.Task) Result {
	res := Result{
		Entries: make([]Entry, 0, len(tasks)),
		Success: true,
	}
	for _, t := range tasks {
		e := Classify(t)
		res.Entries = append(res.Entries, e)
		if e.Failed() && res.Success {
			res.Success = false
			res.ExitCode = e.ExitCode
		}
	}
	return res
}

// Classify builds the entry for a single task.
func Classify(t *task.Task) Entry {
	e := Entry{
		Label:       t.Label(),
		CommandLine: t.RedactedCommandLine(),
		Outcome:     t.Outcome(),
		Disposition: t.Disposition(),
		DryRun:      t.DryRun(),
		Stdout:      t.Stdout(),
		Stderr:      t.Stderr(),
		Err:         t.Err(),
	}
	e.ExitCode = exitCode(e.Outcome, e.Disposition)
	return e
}

func exitCode(outcome task.Outcome, d task.Disposition) int {
	switch outcome {
	case task.OutcomeSucceeded, task.OutcomeSkipped:
		return 0
	case task.OutcomeFailed:
		if d.Reason == task.SignalTerminated {
			return 128 + d.Status
		}
		if d.Status <= 0 {
			return ExitUnfinished
		}
		return d.Status
	case task.OutcomeLaunchFailed:
		return ExitLaunchFailed
	case task.OutcomeCancelled:
		return ExitCancelled
	default:
		return ExitUnfinished
	}
}

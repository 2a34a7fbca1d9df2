package task

import "fmt"

// State is the lifecycle state of a Task.
type State int32

const (
	// Pending tasks have not been started.
	Pending State = iota
	// Executing tasks have been started and have not yet terminated.
	Executing
	// Finished tasks ran to completion, failed to launch, or were skipped.
	Finished
	// Cancelled tasks were cancelled before or during execution.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Executing:
		return "executing"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// IsTerminal reports whether the state is Finished or Cancelled.
func (s State) IsTerminal() bool {
	return s == Finished || s == Cancelled
}

// canTransition reports whether from -> to is a legal forward move.
func canTransition(from, to State) bool {
	switch from {
	case Pending:
		return to == Executing || to == Cancelled
	case Executing:
		return to == Finished || to == Cancelled
	default:
		return false
	}
}

// TerminationReason describes how a process ended.
type TerminationReason int

const (
	// Exited means the process returned an exit status.
	Exited TerminationReason = iota
	// SignalTerminated means the process was killed by a signal.
	SignalTerminated
)

func (r TerminationReason) String() string {
	if r == SignalTerminated {
		return "signal"
	}
	return "exit"
}

// Disposition is the exit status of a terminated task.
//
// For SignalTerminated dispositions Status holds the signal number.
type Disposition struct {
	Status int
	Reason TerminationReason
}

// Success reports whether the task exited normally with status 0.
func (d Disposition) Success() bool {
	return d.Reason == Exited && d.Status == 0
}

func (d Disposition) String() string {
	if d.Reason == SignalTerminated {
		return fmt.Sprintf("terminated by signal %d", d.Status)
	}
	return fmt.Sprintf("exit status %d", d.Status)
}

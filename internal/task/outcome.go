package task

// Outcome classifies how a task ended.
type Outcome string

const (
	OutcomeUnfinished   Outcome = "unfinished"
	OutcomeSucceeded    Outcome = "succeeded"
	OutcomeFailed       Outcome = "failed"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeLaunchFailed Outcome = "launch-failed"
)

// Outcome classifies the task's terminal state.
func (t *Task) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.state == Cancelled:
		return OutcomeCancelled
	case t.state != Finished:
		return OutcomeUnfinished
	case t.skipped:
		return OutcomeSkipped
	case t.launchErr != nil:
		return OutcomeLaunchFailed
	case t.disposition.Success():
		return OutcomeSucceeded
	default:
		return OutcomeFailed
	}
}

package task

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCommand is returned when a task is built without an executable.
	ErrEmptyCommand = errors.New("task command is empty")

	// ErrNotFinished is returned when output is read before the task terminated.
	ErrNotFinished = errors.New("task has not finished")

	// ErrSkip is returned by a Prepare hook to finish the task without launching it.
	ErrSkip = errors.New("task skipped")
)

// LaunchError records why a task's command could not be started.
type LaunchError struct {
	Label string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Label, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

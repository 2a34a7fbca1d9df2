// Package task models a single external command execution as a forward-only
// state machine.
//
// A Task moves Pending -> Executing -> Finished, or to Cancelled from Pending or
// Executing. Output and exit disposition are owned by the task until it reaches
// a terminal state; afterwards they are immutable and safe to read from any
// goroutine, which is how a dependent task extracts data (addresses, tokens,
// environment) from a predecessor.
//
// In dry-run mode a task never launches its command. It finishes successfully
// with stdout equal to the space-joined command line, so a pipeline can be
// exercised end to end without touching real infrastructure.
package task

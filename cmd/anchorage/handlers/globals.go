// Package handlers implements the business logic for CLI commands.
//
// Each handler loads configuration, builds the task graph for its command,
// drains it through the scheduler and reports the outcome. Commands only
// parse flags and delegate here.
package handlers

import (
	"fmt"
	"io"
	"os"
)

// Globals holds the flags shared by every command.
type Globals struct {
	ConfigPath  string
	Verbosity   int
	Workers     int
	MetricsFile string
	DryRun      bool

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

func (g *Globals) stderr() io.Writer {
	if g.Err != nil {
		return g.Err
	}
	return os.Stderr
}

// ExitError reports a run in which at least one task failed. Code is the
// process exit code; the failures have already been printed.
type ExitError struct {
	Code   int
	Failed int
	Total  int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%d of %d tasks failed", e.Failed, e.Total)
}

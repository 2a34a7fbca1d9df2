package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/imamik/anchorage/internal/task"
)

// Renderer writes progress lines and run summaries. It is safe for
// concurrent use.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
	quiet  bool
}

// NewRenderer returns a renderer writing to w, styled when w is a terminal.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{out: w, styled: isTerminal(w)}
}

// SetQuiet suppresses progress lines other than successful creations, which
// are printed as the bare machine name.
func (r *Renderer) SetQuiet(quiet bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quiet = quiet
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress prints one line for a terminal task.
func (r *Renderer) Progress(t *task.Task) {
	e := Classify(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quiet {
		if name, ok := strings.CutPrefix(e.Label, "create "); ok && e.Outcome == task.OutcomeSucceeded {
			fmt.Fprintln(r.out, name)
		}
		return
	}

	mark, style := markFor(e)
	line := fmt.Sprintf("%s %s", r.style(style, mark), e.Label)
	name, isCreate := strings.CutPrefix(e.Label, "create ")
	switch e.Outcome {
	case task.OutcomeSucceeded:
		if isCreate && e.DryRun {
			line = fmt.Sprintf("%s Would create machine %s", r.style(style, mark), name)
		} else if isCreate {
			line = fmt.Sprintf("%s Created machine %s", r.style(style, mark), name)
		}
	case task.OutcomeSkipped:
		line += r.style(dimStyle, " (skipped)")
	case task.OutcomeFailed:
		line += r.style(dimStyle, " ("+e.Disposition.String()+")")
	case task.OutcomeLaunchFailed:
		line += r.style(dimStyle, " (failed to launch)")
	case task.OutcomeCancelled:
		line += r.style(dimStyle, " (cancelled)")
	}
	fmt.Fprintln(r.out, line)

	if e.Outcome != task.OutcomeSucceeded {
		return
	}
	switch {
	case e.DryRun:
		// A dry run's output is the command line it stands in for.
		fmt.Fprintf(r.out, "  would run: %s\n", task.RedactCommandLine(e.Stdout))
	case isCreate:
		for _, out := range strings.Split(strings.TrimRight(e.Stdout, "\n"), "\n") {
			if out = strings.TrimSpace(out); out != "" {
				fmt.Fprintf(r.out, "  %s\n", r.style(dimStyle, task.RedactCommandLine(out)))
			}
		}
	}
}

// Summary prints the failures of res, or confirmation when it succeeded.
func (r *Renderer) Summary(res Result, confirmation string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.Success {
		if !r.quiet && confirmation != "" {
			fmt.Fprintln(r.out, r.style(successStyle, confirmation))
		}
		return
	}

	failures := res.Failures()
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.style(failedStyle, fmt.Sprintf("%d of %d tasks failed:", len(failures), len(res.Entries))))
	for _, e := range failures {
		fmt.Fprintf(r.out, "\n%s %s\n", r.style(failedStyle, crossMark), r.style(labelStyle, e.Label))
		fmt.Fprintf(r.out, "  command: %s\n", task.RedactCommandLine(e.CommandLine))
		if e.Err != nil {
			fmt.Fprintf(r.out, "  error:   %v\n", e.Err)
		} else {
			fmt.Fprintf(r.out, "  result:  %s\n", e.Disposition)
		}
		if stderr := strings.TrimRight(e.Stderr, "\n"); stderr != "" {
			for _, line := range strings.Split(stderr, "\n") {
				fmt.Fprintf(r.out, "  %s\n", r.style(dimStyle, line))
			}
		}
	}
}

func markFor(e Entry) (string, lipgloss.Style) {
	switch e.Outcome {
	case task.OutcomeSucceeded:
		return checkMark, successStyle
	case task.OutcomeSkipped:
		return skipMark, skippedStyle
	default:
		return crossMark, failedStyle
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

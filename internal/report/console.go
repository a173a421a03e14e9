// Package report writes human-readable launch progress.
//
// Progress goes to stdout and diagnostics to stderr. Parent and child share
// the same inherited streams, so their lines may interleave arbitrarily;
// each call writes whole lines in a single Write to keep lines intact.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-forklaunch/internal/launcher"
	"github.com/randomizedcoder/go-forklaunch/internal/process"
)

// Console implements launcher.Reporter on a pair of writers.
type Console struct {
	out    io.Writer
	errOut io.Writer
	s      styles
	es     styles
}

var _ launcher.Reporter = (*Console)(nil)

// NewConsole creates a Console writing progress to out and diagnostics to
// errOut. With plain set, output carries no ANSI styling.
func NewConsole(out, errOut io.Writer, plain bool) *Console {
	return &Console{
		out:    out,
		errOut: errOut,
		s:      newStyles(lipgloss.NewRenderer(out), plain),
		es:     newStyles(lipgloss.NewRenderer(errOut), plain),
	}
}

// Caller prints the identity block of the process about to fork.
func (c *Console) Caller(id process.Identity) {
	c.write(c.out, c.identityBlock("Calling process (parent)", id), separator)
}

// Forking prints the fork announcement.
func (c *Console) Forking() {
	c.write(c.out, c.s.muted.Render("Calling fork....."))
}

// ForkFailed prints the diagnostic and fork's -1 return value.
func (c *Console) ForkFailed(err error) {
	c.write(c.errOut, c.es.failure.Render(err.Error()))
	c.write(c.out, c.returnValue("parent", -1))
}

// Child prints the child's identity block and fork's 0 return value.
func (c *Console) Child(id process.Identity) {
	c.write(c.out,
		c.identityBlock("Cloned process (child)", id),
		c.returnValue("child", 0),
		separator,
	)
}

// ExecFailed prints the child's exec diagnostic.
func (c *Console) ExecFailed(err error) {
	c.write(c.errOut, c.es.failure.Render(err.Error()))
}

// WaitFailed prints the parent's wait diagnostic.
func (c *Console) WaitFailed(err error) {
	c.write(c.errOut, c.es.failure.Render(err.Error()))
}

// Outcome prints the child's decoded status and fork's return value in the parent.
func (c *Console) Outcome(childPID int, o launcher.ExitOutcome) {
	var status string
	switch o.Kind {
	case launcher.NormalExit:
		style := c.s.ok
		if o.Code != 0 {
			style = c.s.warn
		}
		status = "Child exited with status " + style.Render(fmt.Sprintf("%d", o.Code))
	default:
		status = c.s.failure.Render("Child did not exit normally.")
		if o.Signal != 0 {
			status += c.s.muted.Render(fmt.Sprintf(" (signal: %v)", o.Signal))
		}
	}
	c.write(c.out, status, separator, c.returnValue("parent", childPID))
}

func (c *Console) identityBlock(title string, id process.Identity) string {
	return strings.Join([]string{
		c.s.title.Render(title + ":"),
		"  " + c.s.label.Render("PPID:") + " " + c.s.value.Render(fmt.Sprintf("%d", id.PPID)),
		"  " + c.s.label.Render("PID :") + " " + c.s.value.Render(fmt.Sprintf("%d", id.PID)),
	}, "\n")
}

func (c *Console) returnValue(branch string, v int) string {
	return fmt.Sprintf("Return value from fork() to %s: %s", branch, c.s.value.Render(fmt.Sprintf("%d", v)))
}

// write emits lines as one Write so concurrent writers cannot split a line.
func (c *Console) write(w io.Writer, lines ...string) {
	io.WriteString(w, strings.Join(lines, "\n")+"\n")
}

// Package preflight provides advisory startup checks.
//
// Checks never block a launch: a missing or non-executable target is still
// only detected by the child's exec, and a full process table only by fork.
// Preflight reports what is likely to go wrong before it does.
package preflight

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/randomizedcoder/go-forklaunch/internal/process"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Checker runs checks against a proc filesystem root.
type Checker struct {
	ProcRoot   string
	UID        int
	Executable func() (string, error)
}

// NewChecker returns a Checker for the running process.
func NewChecker() *Checker {
	return &Checker{
		ProcRoot:   "/proc",
		UID:        os.Getuid(),
		Executable: os.Executable,
	}
}

// RunAll executes all preflight checks with the default Checker.
func RunAll(target string) *Result {
	return NewChecker().RunAll(target)
}

// RunAll executes all preflight checks for launching target.
func (c *Checker) RunAll(target string) *Result {
	result := &Result{
		Checks: make([]Check, 0, 3),
		Passed: true,
	}

	for _, check := range []Check{
		c.checkProcessLimit(),
		c.checkSelfExecutable(),
		checkTarget(target),
	} {
		result.Checks = append(result.Checks, check)
		if !check.Passed {
			result.Passed = false
		}
	}

	return result
}

// checkProcessLimit verifies fork has a free process slot under RLIMIT_NPROC.
func (c *Checker) checkProcessLimit() Check {
	data, err := os.ReadFile(c.ProcRoot + "/self/limits")
	if err != nil {
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Warning: true,
			Message: "unable to check (non-Linux or restricted)",
		}
	}

	limit, unlimited := parseMaxProcesses(string(data))
	if unlimited {
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Message: "ulimit -u unlimited",
		}
	}
	if limit == 0 {
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Warning: true,
			Message: "unable to determine (assuming OK)",
		}
	}

	// A fork needs one more slot than the user already holds.
	used := c.countUserTasks()
	return Check{
		Name:     "process_limit",
		Required: 1,
		Actual:   limit - used,
		Passed:   limit-used >= 1,
		Message:  fmt.Sprintf("ulimit -u %d (%d tasks in use)", limit, used),
	}
}

// parseMaxProcesses returns the soft "Max processes" limit.
func parseMaxProcesses(limits string) (limit int, unlimited bool) {
	for _, line := range strings.Split(limits, "\n") {
		if !strings.HasPrefix(line, "Max processes") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return 0, false
		}
		if fields[2] == "unlimited" {
			return 0, true
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return 0, false
		}
		return n, false
	}
	return 0, false
}

// countUserTasks counts the threads of processes owned by the checker's uid.
// RLIMIT_NPROC is charged per task, so a process counts once per entry in
// its task directory (once if that directory is unreadable).
func (c *Checker) countUserTasks() int {
	entries, err := os.ReadDir(c.ProcRoot)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		dir := filepath.Join(c.ProcRoot, e.Name())
		info, err := os.Stat(dir)
		if err != nil {
			continue
		}
		st, ok := info.Sys().(*syscall.Stat_t)
		if !ok || int(st.Uid) != c.UID {
			continue
		}
		tasks, err := os.ReadDir(filepath.Join(dir, "task"))
		if err != nil || len(tasks) == 0 {
			count++
			continue
		}
		count += len(tasks)
	}
	return count
}

// checkSelfExecutable verifies the running binary can be re-executed,
// which is how this process forks.
func (c *Checker) checkSelfExecutable() Check {
	exe, err := c.Executable()
	if err != nil {
		return Check{
			Name:    "self_executable",
			Passed:  false,
			Message: fmt.Sprintf("cannot resolve running binary: %v", err),
		}
	}
	if err := unix.Access(exe, unix.X_OK); err != nil {
		return Check{
			Name:    "self_executable",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", exe, err),
		}
	}
	return Check{
		Name:    "self_executable",
		Passed:  true,
		Message: exe,
	}
}

// checkTarget verifies the target resolves to an executable regular file.
func checkTarget(target string) Check {
	resolved, err := process.LookPath(target)
	if err != nil {
		return Check{
			Name:    "target_executable",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", target, err),
		}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Check{
			Name:    "target_executable",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", resolved, err),
		}
	}
	if !info.Mode().IsRegular() {
		return Check{
			Name:    "target_executable",
			Passed:  false,
			Message: fmt.Sprintf("%s is not a regular file", resolved),
		}
	}
	if err := unix.Access(resolved, unix.X_OK); err != nil {
		return Check{
			Name:    "target_executable",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", resolved, err),
		}
	}

	return Check{
		Name:    "target_executable",
		Passed:  true,
		Message: resolved,
	}
}

// PrintResults prints the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	if !result.Passed {
		fmt.Fprintln(w, "  (advisory only; launching anyway)")
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "process_limit":
		return "ulimit -u 4096 (or edit /etc/security/limits.conf)"
	case "self_executable":
		return "run forklaunch from a path it can re-execute (is /proc mounted?)"
	case "target_executable":
		return "check the target path and chmod +x it"
	default:
		return "see documentation"
	}
}

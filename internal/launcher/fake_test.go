package launcher

import (
	"sync"

	"github.com/randomizedcoder/go-forklaunch/internal/process"
)

// =============================================================================
// Fake System for testing
// =============================================================================

// fakeSystem implements process.System without touching the kernel.
type fakeSystem struct {
	mu sync.Mutex

	pid    int
	ppid   int
	cloned bool

	forkResult process.ForkResult
	execErr    error
	status     process.Status
	waitErr    error

	forkCalls int
	execPath  string
	execArgv  []string
	execCalls int
	waitPIDs  []int
}

func newParentSystem(childPID int, raw process.Status) *fakeSystem {
	if raw.PID == 0 {
		raw.PID = childPID
	}
	return &fakeSystem{
		pid:        1000,
		ppid:       1,
		forkResult: process.ParentBranch(childPID),
		status:     raw,
	}
}

func newChildSystem(execErr error) *fakeSystem {
	return &fakeSystem{
		pid:        1001,
		ppid:       1000,
		cloned:     true,
		forkResult: process.ChildBranch(),
		execErr:    execErr,
	}
}

func (f *fakeSystem) PID() int  { return f.pid }
func (f *fakeSystem) PPID() int { return f.ppid }

func (f *fakeSystem) Cloned() bool { return f.cloned }

func (f *fakeSystem) Fork() process.ForkResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forkCalls++
	return f.forkResult
}

func (f *fakeSystem) Exec(path string, argv []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCalls++
	f.execPath = path
	f.execArgv = append([]string(nil), argv...)
	return f.execErr
}

func (f *fakeSystem) Wait(pid int) (process.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waitPIDs = append(f.waitPIDs, pid)
	if f.waitErr != nil {
		return process.Status{}, f.waitErr
	}
	return f.status, nil
}

// =============================================================================
// Recording Reporter
// =============================================================================

type recordingReporter struct {
	mu     sync.Mutex
	events []string

	caller   process.Identity
	child    process.Identity
	outcome  ExitOutcome
	childPID int
	err      error
}

func (r *recordingReporter) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingReporter) Caller(id process.Identity) {
	r.caller = id
	r.add("caller")
}

func (r *recordingReporter) Forking() { r.add("forking") }

func (r *recordingReporter) ForkFailed(err error) {
	r.err = err
	r.add("fork_failed")
}

func (r *recordingReporter) Child(id process.Identity) {
	r.child = id
	r.add("child")
}

func (r *recordingReporter) ExecFailed(err error) {
	r.err = err
	r.add("exec_failed")
}

func (r *recordingReporter) WaitFailed(err error) {
	r.err = err
	r.add("wait_failed")
}

func (r *recordingReporter) Outcome(childPID int, o ExitOutcome) {
	r.childPID = childPID
	r.outcome = o
	r.add("outcome")
}

func (r *recordingReporter) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

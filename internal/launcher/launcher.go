// Package launcher runs the fork, exec and wait protocol for one child.
//
// A launch duplicates the calling process, replaces the child's image with a
// target executable and blocks the parent until that exact child terminates.
// There is no scheduling, no retry and no timeout: the parent waits as long
// as the child runs.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/randomizedcoder/go-forklaunch/internal/process"
)

// Reporter receives human-readable progress at each stage of a launch.
// It carries no control-flow significance.
type Reporter interface {
	// Caller reports the identity of the process about to fork.
	Caller(id process.Identity)

	// Forking reports that the fork call is being made.
	Forking()

	// ForkFailed reports a *ProcessCreationError and fork's -1 return value.
	ForkFailed(err error)

	// Child reports the child's identity and fork's 0 return value.
	Child(id process.Identity)

	// ExecFailed reports the child's *ImageReplacementError.
	ExecFailed(err error)

	// WaitFailed reports the parent's *WaitError.
	WaitFailed(err error)

	// Outcome reports the decoded child status and fork's return value in the parent.
	Outcome(childPID int, o ExitOutcome)
}

// Callbacks contains optional callback functions for launch events.
type Callbacks struct {
	// OnStateChange is called on every protocol transition.
	OnStateChange func(oldState, newState State)

	// OnFork is called in the parent once the child exists.
	OnFork func(childPID int)

	// OnExit is called in the parent after the child's status is decoded.
	OnExit func(o ExitOutcome)
}

// Config holds configuration for creating a new Launcher.
type Config struct {
	System    process.System
	Reporter  Reporter
	Logger    *slog.Logger
	Callbacks Callbacks
}

// Launcher executes a single fork/exec/wait sequence.
type Launcher struct {
	sys       process.System
	reporter  Reporter
	logger    *slog.Logger
	callbacks Callbacks

	state   State
	stateMu sync.RWMutex
	used    bool
}

// New creates a new Launcher with the given configuration.
// A nil Reporter discards progress; a nil Logger discards logs.
func New(cfg Config) *Launcher {
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Launcher{
		sys:       cfg.System,
		reporter:  reporter,
		logger:    logger,
		callbacks: cfg.Callbacks,
		state:     StateStart,
	}
}

// ErrAlreadyLaunched is returned when Launch is called twice on one Launcher.
var ErrAlreadyLaunched = errors.New("launcher already used")

// Launch forks, execs target with argv in the child and waits for it in the
// parent. An empty argv defaults to {target}.
//
// In the parent it returns the child's ExitOutcome, or a *ProcessCreationError
// or *WaitError. In the child it returns only when exec fails, always with an
// *ImageReplacementError. Callers exit non-zero on any error.
func (l *Launcher) Launch(target string, argv []string) (ExitOutcome, error) {
	l.stateMu.Lock()
	if l.used {
		l.stateMu.Unlock()
		return ExitOutcome{}, ErrAlreadyLaunched
	}
	l.used = true
	l.stateMu.Unlock()

	if len(argv) == 0 {
		argv = []string{target}
	}

	// A clone resumes at the fork point; the pre-fork report already happened
	// in its parent.
	if !l.sys.Cloned() {
		caller := process.CurrentIdentity(l.sys)
		l.logger.Debug("launch_starting",
			"caller_pid", caller.PID,
			"caller_ppid", caller.PPID,
			"target", target,
			"argv", argv,
		)
		l.reporter.Caller(caller)
		l.reporter.Forking()
	}

	res := l.sys.Fork()
	l.setState(StateForked)

	switch res.Kind() {
	case process.ForkChild:
		return ExitOutcome{}, l.runChild(target, argv)
	case process.ForkParent:
		pid, _ := res.ChildPID()
		return l.runParent(pid)
	default:
		err := res.Err()
		if err == nil {
			err = fmt.Errorf("fork returned %v", res.Kind())
		}
		l.setState(StateForkFailed)
		cerr := &ProcessCreationError{Err: err}
		l.reporter.ForkFailed(cerr)
		l.logger.Error("fork_failed", "error", err)
		return ExitOutcome{}, cerr
	}
}

// runChild replaces the process image. It returns only on failure.
func (l *Launcher) runChild(target string, argv []string) error {
	l.setState(StateChildPreExec)
	l.reporter.Child(process.CurrentIdentity(l.sys))
	l.logger.Debug("child_exec", "path", target, "argv", argv)

	err := l.sys.Exec(target, argv)
	if err == nil {
		err = errors.New("exec returned without error")
	}

	l.setState(StateChildPostExecFailure)
	ierr := &ImageReplacementError{Path: target, Err: err}
	l.reporter.ExecFailed(ierr)
	l.logger.Error("exec_failed", "path", target, "error", err)
	return ierr
}

// runParent blocks until childPID terminates and decodes its status.
func (l *Launcher) runParent(childPID int) (ExitOutcome, error) {
	l.setState(StateParentWaiting)
	l.logger.Info("child_started", "child_pid", childPID)
	if l.callbacks.OnFork != nil {
		l.callbacks.OnFork(childPID)
	}

	start := time.Now()
	st, err := l.sys.Wait(childPID)
	waited := time.Since(start)
	if err == nil && st.PID != childPID {
		err = fmt.Errorf("reaped unexpected pid %d", st.PID)
	}
	if err != nil {
		werr := &WaitError{PID: childPID, Err: err}
		l.reporter.WaitFailed(werr)
		l.logger.Error("wait_failed", "child_pid", childPID, "error", err)
		return ExitOutcome{}, werr
	}

	outcome := Decode(st)
	outcome.Waited = waited
	l.setState(StateParentDone)

	l.logger.Info("child_exited",
		"child_pid", childPID,
		"outcome", outcome.Kind.String(),
		"exit_code", outcome.Code,
		"waited", waited.String(),
	)
	l.reporter.Outcome(childPID, outcome)

	if l.callbacks.OnExit != nil {
		l.callbacks.OnExit(outcome)
	}
	return outcome, nil
}

// State returns the current protocol state.
func (l *Launcher) State() State {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state
}

// setState updates the state and calls the callback if registered.
func (l *Launcher) setState(newState State) {
	l.stateMu.Lock()
	oldState := l.state
	l.state = newState
	l.stateMu.Unlock()

	if !oldState.CanTransition(newState) {
		l.logger.Warn("unexpected_transition", "from", oldState.String(), "to", newState.String())
	}
	if l.callbacks.OnStateChange != nil && oldState != newState {
		l.callbacks.OnStateChange(oldState, newState)
	}
}

type nopReporter struct{}

func (nopReporter) Caller(process.Identity)  {}
func (nopReporter) Forking()                 {}
func (nopReporter) ForkFailed(error)         {}
func (nopReporter) Child(process.Identity)   {}
func (nopReporter) ExecFailed(error)         {}
func (nopReporter) WaitFailed(error)         {}
func (nopReporter) Outcome(int, ExitOutcome) {}

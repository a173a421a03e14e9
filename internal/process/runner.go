// Package process provides the operating-system capabilities the launcher
// is built on: process identity, duplication, image replacement and wait.
package process

// Identity is the pid/ppid pair of a running process.
type Identity struct {
	PID  int
	PPID int
}

// ProcessInfoProvider answers process identity queries.
// This interface allows tests to substitute fixed identities.
type ProcessInfoProvider interface {
	PID() int
	PPID() int
}

// CurrentIdentity queries p for the calling process identity.
func CurrentIdentity(p ProcessInfoProvider) Identity {
	return Identity{PID: p.PID(), PPID: p.PPID()}
}

// Forker duplicates the calling process.
type Forker interface {
	// Cloned reports whether this process is the child side of a Fork
	// performed by its parent. A cloned process resumes at the fork point.
	Cloned() bool

	// Fork duplicates the process. In the parent it returns ParentBranch
	// with the child's pid, or Failure. In the clone it returns ChildBranch.
	Fork() ForkResult
}

// ImageReplacer replaces the program image of the calling process.
type ImageReplacer interface {
	// Exec replaces the process image with path and argv.
	// It returns only on failure, and the returned error is never nil.
	Exec(path string, argv []string) error
}

// Waiter blocks until a specific child terminates.
type Waiter interface {
	// Wait blocks until the child identified by pid terminates and
	// returns its raw status. There is no timeout.
	Wait(pid int) (Status, error)
}

// System is the full set of capabilities a launch needs.
type System interface {
	ProcessInfoProvider
	Forker
	ImageReplacer
	Waiter
}

package process

import "fmt"

// ForkKind tags which side of a duplication a ForkResult describes.
type ForkKind int

const (
	forkUnset ForkKind = iota

	// ForkFailure means no child was created.
	ForkFailure

	// ForkChild means the caller is the newly created process.
	ForkChild

	// ForkParent means the caller is the original process and holds the child's pid.
	ForkParent
)

// String returns a human-readable name for the kind.
func (k ForkKind) String() string {
	switch k {
	case ForkFailure:
		return "failure"
	case ForkChild:
		return "child"
	case ForkParent:
		return "parent"
	default:
		return "unset"
	}
}

// ForkResult is the outcome of a single Fork call. Exactly one kind holds.
// The zero value is unset and must not be treated as a successful fork.
type ForkResult struct {
	kind     ForkKind
	childPID int
	err      error
}

// Failure returns a ForkResult for a duplication that failed with err.
func Failure(err error) ForkResult {
	return ForkResult{kind: ForkFailure, err: err}
}

// ChildBranch returns the ForkResult seen by the new process.
func ChildBranch() ForkResult {
	return ForkResult{kind: ForkChild}
}

// ParentBranch returns the ForkResult seen by the original process.
func ParentBranch(childPID int) ForkResult {
	return ForkResult{kind: ForkParent, childPID: childPID}
}

// Kind returns which variant holds.
func (r ForkResult) Kind() ForkKind {
	return r.kind
}

// ChildPID returns the child's pid. ok is false unless this is a ParentBranch.
func (r ForkResult) ChildPID() (pid int, ok bool) {
	if r.kind != ForkParent {
		return 0, false
	}
	return r.childPID, true
}

// Err returns the duplication error of a Failure, nil otherwise.
func (r ForkResult) Err() error {
	if r.kind != ForkFailure {
		return nil
	}
	return r.err
}

// ReturnValue is what fork(2) would have returned on this branch:
// -1 on failure, 0 in the child, the child's pid in the parent.
func (r ForkResult) ReturnValue() int {
	switch r.kind {
	case ForkChild:
		return 0
	case ForkParent:
		return r.childPID
	default:
		return -1
	}
}

func (r ForkResult) String() string {
	switch r.kind {
	case ForkFailure:
		return fmt.Sprintf("failure(%v)", r.err)
	case ForkParent:
		return fmt.Sprintf("parent(child=%d)", r.childPID)
	default:
		return r.kind.String()
	}
}

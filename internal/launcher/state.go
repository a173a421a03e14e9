package launcher

// State is the position of a launch in the fork/exec/wait protocol.
type State int

const (
	// StateStart is the initial state before the fork call.
	StateStart State = iota

	// StateForked indicates the fork call has returned.
	StateForked

	// StateForkFailed indicates no child could be created.
	StateForkFailed

	// StateChildPreExec indicates the child branch is about to replace its image.
	StateChildPreExec

	// StateChildPostExecFailure indicates the child failed to replace its image.
	StateChildPostExecFailure

	// StateParentWaiting indicates the parent is blocked waiting for the child.
	StateParentWaiting

	// StateParentDone indicates the parent has collected the child's status.
	StateParentDone
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateForked:
		return "forked"
	case StateForkFailed:
		return "fork_failed"
	case StateChildPreExec:
		return "child_pre_exec"
	case StateChildPostExecFailure:
		return "child_post_exec_failure"
	case StateParentWaiting:
		return "parent_waiting"
	case StateParentDone:
		return "parent_done"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if no further transition can happen from s
// within this process.
func (s State) IsTerminal() bool {
	return s == StateForkFailed || s == StateChildPostExecFailure || s == StateParentDone
}

// validTransitions lists the successors allowed from each state.
var validTransitions = map[State][]State{
	StateStart:         {StateForked},
	StateForked:        {StateForkFailed, StateChildPreExec, StateParentWaiting},
	StateChildPreExec:  {StateChildPostExecFailure},
	StateParentWaiting: {StateParentDone},
}

// CanTransition reports whether moving from s to next is part of the protocol.
func (s State) CanTransition(next State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

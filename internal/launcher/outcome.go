package launcher

import (
	"fmt"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-forklaunch/internal/process"
)

// ExitKind tags how a child terminated.
type ExitKind int

const (
	// NormalExit means the child left through its own exit path with a code.
	NormalExit ExitKind = iota + 1

	// AbnormalTermination covers every other termination: signals, or any
	// status that is not a normal exit.
	AbnormalTermination
)

// String returns a human-readable name for the kind.
func (k ExitKind) String() string {
	switch k {
	case NormalExit:
		return "normal_exit"
	case AbnormalTermination:
		return "abnormal"
	default:
		return "unknown"
	}
}

// ExitOutcome is the parent's decoded view of a child's termination.
type ExitOutcome struct {
	Kind ExitKind

	// Code is the exit status (0-255). Only meaningful for NormalExit.
	Code int

	// Signal is the terminating signal, when the child was signaled.
	Signal syscall.Signal

	// PID is the child that was waited on.
	PID int

	// Waited is how long the parent blocked in wait.
	Waited time.Duration

	// UserTime and SystemTime are the child's CPU usage.
	UserTime   time.Duration
	SystemTime time.Duration
}

// Decode turns a raw wait status into an ExitOutcome.
func Decode(st process.Status) ExitOutcome {
	o := ExitOutcome{
		PID:        st.PID,
		UserTime:   st.UserTime(),
		SystemTime: st.SystemTime(),
	}
	if st.Raw.Exited() {
		o.Kind = NormalExit
		o.Code = st.Raw.ExitStatus()
		return o
	}
	o.Kind = AbnormalTermination
	if st.Raw.Signaled() {
		o.Signal = st.Raw.Signal()
	}
	return o
}

func (o ExitOutcome) String() string {
	switch o.Kind {
	case NormalExit:
		return fmt.Sprintf("normal exit (code %d)", o.Code)
	case AbnormalTermination:
		if o.Signal != 0 {
			return fmt.Sprintf("abnormal termination (signal %v)", o.Signal)
		}
		return "abnormal termination"
	default:
		return "no outcome"
	}
}

package process

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Status is the raw termination status collected by Wait.
type Status struct {
	// PID is the pid the wait call reported. It must match the pid waited on.
	PID int

	// Raw is the undecoded wait status word.
	Raw unix.WaitStatus

	// Rusage holds the child's resource usage (zero for fakes).
	Rusage unix.Rusage
}

// UserTime returns the child's user CPU time.
func (s Status) UserTime() time.Duration {
	return time.Duration(s.Rusage.Utime.Nano())
}

// SystemTime returns the child's system CPU time.
func (s Status) SystemTime() time.Duration {
	return time.Duration(s.Rusage.Stime.Nano())
}

// RawExited builds the wait status word of a child that exited with code.
func RawExited(code int) unix.WaitStatus {
	return unix.WaitStatus((code & 0xff) << 8)
}

// RawSignaled builds the wait status word of a child killed by sig.
func RawSignaled(sig syscall.Signal) unix.WaitStatus {
	return unix.WaitStatus(uint32(sig) & 0x7f)
}

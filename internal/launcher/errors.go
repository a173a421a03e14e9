package launcher

import "fmt"

// ProcessCreationError means the process could not be duplicated.
// It is fatal to the calling process.
type ProcessCreationError struct {
	Err error
}

func (e *ProcessCreationError) Error() string {
	return fmt.Sprintf("fork failed: %v", e.Err)
}

func (e *ProcessCreationError) Unwrap() error {
	return e.Err
}

// ImageReplacementError means the child could not start the target program.
// It is fatal to the child process only.
type ImageReplacementError struct {
	Path string
	Err  error
}

func (e *ImageReplacementError) Error() string {
	return fmt.Sprintf("exec failed: %s: %v", e.Path, e.Err)
}

func (e *ImageReplacementError) Unwrap() error {
	return e.Err
}

// WaitError means the parent could not collect the child's status.
type WaitError struct {
	PID int
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("wait for pid %d failed: %v", e.PID, e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

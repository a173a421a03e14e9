package process

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// CloneEnv marks a re-executed copy of the running binary as the child side
// of a Fork. Its value is "<parent pid>:<token>".
const CloneEnv = "FORKLAUNCH_CLONE"

// cloneTokenFD is the descriptor on which the parent hands the clone a pipe
// holding the same token. A shell can forge CloneEnv but not this pipe.
const cloneTokenFD = 3

// Unix implements System on top of the host kernel.
//
// The Go runtime is multi-threaded, so fork(2) cannot be called directly.
// Fork instead re-executes the running binary with the same argv, CloneEnv
// set and a token pipe on fd 3; the copy recognises itself at startup when
// both agree and its Fork returns ChildBranch, resuming the protocol where
// the parent left off.
type Unix struct {
	executable func() (string, error)
	args       []string
	env        []string
	cloned     bool
}

// NewUnix returns a System for the current process. It strips CloneEnv from
// the environment it hands to exec so the target never sees it.
func NewUnix() *Unix {
	env, cloned := detectClone(os.Environ(), unix.Getppid(), cloneTokenFD)
	return &Unix{
		executable: os.Executable,
		args:       os.Args,
		env:        env,
		cloned:     cloned,
	}
}

// detectClone strips CloneEnv from env and reports whether this process is
// a clone: the marker must name ppid and carry the token waiting on fd.
func detectClone(env []string, ppid, fd int) ([]string, bool) {
	env, token := splitCloneEnv(env, ppid)
	if token == "" {
		return env, false
	}
	return env, readCloneToken(fd) == token
}

// splitCloneEnv removes CloneEnv from env and returns its token if the
// marker names ppid. A stale marker inherited from an unrelated ancestor
// yields no token.
func splitCloneEnv(env []string, ppid int) ([]string, string) {
	prefix := CloneEnv + "="
	token := ""
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, prefix); ok {
			pidStr, tok, found := strings.Cut(v, ":")
			if pid, err := strconv.Atoi(pidStr); err == nil && pid == ppid && found {
				token = tok
			}
			continue
		}
		out = append(out, kv)
	}
	return out, token
}

// readCloneToken reads the token the parent left in the pipe on fd and
// closes it so the target does not inherit it. Anything other than a pipe
// with data already in it yields "". It never blocks.
func readCloneToken(fd int) string {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil || st.Mode&unix.S_IFMT != unix.S_IFIFO {
		return ""
	}
	defer unix.Close(fd)

	if err := unix.SetNonblock(fd, true); err != nil {
		return ""
	}
	buf := make([]byte, 64)
	n, err := unix.Read(fd, buf)
	if err != nil || n <= 0 {
		return ""
	}
	return string(buf[:n])
}

// PID returns the calling process id.
func (u *Unix) PID() int {
	return unix.Getpid()
}

// PPID returns the parent process id.
func (u *Unix) PPID() int {
	return unix.Getppid()
}

// Cloned reports whether this process was started by a parent's Fork.
func (u *Unix) Cloned() bool {
	return u.cloned
}

// Fork duplicates the process by re-executing the running binary.
func (u *Unix) Fork() ForkResult {
	if u.cloned {
		return ChildBranch()
	}

	exe, err := u.executable()
	if err != nil {
		return Failure(fmt.Errorf("resolve executable: %w", err))
	}

	token := rand.Text()
	r, w, err := os.Pipe()
	if err != nil {
		return Failure(fmt.Errorf("clone token pipe: %w", err))
	}
	defer r.Close()
	_, err = io.WriteString(w, token)
	w.Close()
	if err != nil {
		return Failure(fmt.Errorf("write clone token: %w", err))
	}

	marker := CloneEnv + "=" + strconv.Itoa(unix.Getpid()) + ":" + token
	env := append(slices.Clone(u.env), marker)
	pid, err := syscall.ForkExec(exe, u.args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), r.Fd()},
	})
	if err != nil {
		return Failure(err)
	}
	return ParentBranch(pid)
}

// Exec replaces the process image, resolving path on PATH the way execvp
// does when it contains no slash.
func (u *Unix) Exec(path string, argv []string) error {
	resolved, err := LookPath(path)
	if err != nil {
		return err
	}
	if err := unix.Exec(resolved, argv, u.env); err != nil {
		return err
	}
	return errors.New("exec returned without error")
}

// Wait blocks until pid terminates, retrying when interrupted by a signal.
func (u *Unix) Wait(pid int) (Status, error) {
	var st Status
	for {
		wpid, err := unix.Wait4(pid, &st.Raw, 0, &st.Rusage)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Status{}, err
		}
		st.PID = wpid
		return st, nil
	}
}

// LookPath resolves a target the way execvp does: paths containing a slash
// are used as-is, bare names are searched on PATH.
func LookPath(path string) (string, error) {
	if strings.Contains(path, "/") {
		return path, nil
	}
	resolved, err := exec.LookPath(path)
	if errors.Is(err, exec.ErrDot) {
		return resolved, nil
	}
	return resolved, err
}

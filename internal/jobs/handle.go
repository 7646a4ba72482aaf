package jobs

import (
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
)

// Handle is the supervising abstraction over one spawned external process.
// Poll is non-blocking by construction; Terminate requests a graceful stop
// and Kill ends the process unconditionally.
type Handle interface {
	// Poll reports whether the process has exited and, if so, its exit code.
	// It never blocks.
	Poll() (exitCode int, exited bool)

	// Terminate sends SIGTERM to the process.
	Terminate() error

	// Kill sends SIGKILL to the process.
	Kill() error

	// Done returns a channel that is closed once the process has exited and
	// been reaped. Successive calls return the same channel.
	Done() <-chan struct{}
}

// procHandle implements Handle over an exec.Cmd. A single goroutine waits on
// the process, stores the final ProcessState, and closes done; Poll only
// ever inspects that published state, so it is safe to call concurrently and
// never blocks on the process itself.
type procHandle struct {
	cmd          *exec.Cmd
	processState atomic.Pointer[os.ProcessState]
	done         chan struct{}
}

// startProcess starts cmd and returns a Handle supervising it. The caller
// keeps responsibility for cmd's stdio wiring.
func startProcess(cmd *exec.Cmd) (Handle, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &procHandle{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		// Wait returns an ExitError for non-zero exits; ProcessState is
		// still populated in that case, which is all Poll needs.
		_ = cmd.Wait()

		h.processState.Store(cmd.ProcessState)

		close(h.done)
	}()

	return h, nil
}

func (h *procHandle) Poll() (int, bool) {
	select {
	case <-h.done:
		ps := h.processState.Load()
		if ps == nil {
			return -1, true
		}

		return ps.ExitCode(), true
	default:
		return 0, false
	}
}

func (h *procHandle) Terminate() error {
	return h.cmd.Process.Signal(syscall.SIGTERM)
}

func (h *procHandle) Kill() error {
	return h.cmd.Process.Kill()
}

func (h *procHandle) Done() <-chan struct{} {
	return h.done
}

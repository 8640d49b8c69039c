package defaultcommandadapter

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"

	commandport "github.com/chitacloud/droidflash/ports/command-port"
)

var _ commandport.ProcessHandle = (*ProcessHandle)(nil)

// ProcessHandle implements commandport.ProcessHandle for an os/exec process.
//
// Only the goroutine that started the process may wait on it.
type ProcessHandle struct {
	id      string
	display string
	cmd     *exec.Cmd

	done     chan struct{}
	once     sync.Once
	exitCode int
	signal   os.Signal
	stopped  atomic.Bool
}

// startProcess starts path with args, directing stdout and stderr to the
// same pipe. The caller owns the returned reader.
func startProcess(path string, args []string, display string) (*ProcessHandle, *os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}

	cmd := exec.Command(path, args...)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, nil, err
	}

	// The child holds its own copy of the write end.
	w.Close()

	return &ProcessHandle{
		id:      uuid.NewString(),
		display: display,
		cmd:     cmd,
		done:    make(chan struct{}),
	}, r, nil
}

// ID returns the invocation ID.
func (h *ProcessHandle) ID() string {
	return h.id
}

// PID returns the OS process ID.
func (h *ProcessHandle) PID() int {
	return h.cmd.Process.Pid
}

// Display returns the command line.
func (h *ProcessHandle) Display() string {
	return h.display
}

// IsRunning returns true until the process has been reaped.
func (h *ProcessHandle) IsRunning() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the exit code once the process has been reaped.
func (h *ProcessHandle) ExitCode() (int, bool) {
	select {
	case <-h.done:
		return h.exitCode, true
	default:
		return 0, false
	}
}

// Terminate sends SIGTERM, or kills the process on platforms that do not
// support it.
func (h *ProcessHandle) Terminate() error {
	h.stopped.Store(true)

	err := h.cmd.Process.Signal(syscall.SIGTERM)
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return h.Kill()
}

// Kill forcibly stops the process.
func (h *ProcessHandle) Kill() error {
	h.stopped.Store(true)

	err := h.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Signal returns the signal that stopped the process, or nil.
func (h *ProcessHandle) Signal() os.Signal {
	<-h.done
	return h.signal
}

// TerminationRequested returns true if Terminate or Kill was called.
func (h *ProcessHandle) TerminationRequested() bool {
	return h.stopped.Load()
}

// wait reaps the process and records its exit code exactly once.
func (h *ProcessHandle) wait() (int, error) {
	err := h.cmd.Wait()

	code := int(commandport.ExitNotStarted)
	var sig os.Signal
	if ps := h.cmd.ProcessState; ps != nil {
		code = ps.ExitCode()
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = int(commandport.ExitTerminated)
			sig = ws.Signal()
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil
	}

	h.once.Do(func() {
		h.exitCode = code
		h.signal = sig
		close(h.done)
	})

	return code, err
}

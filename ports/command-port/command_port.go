package commandport

//go:generate mockgen -destination=../../mocks/mock_command_port.go -package=mocks github.com/chitacloud/droidflash/ports/command-port Runner,RunnerFactory,Prober

import (
	"context"
	"errors"
	"strings"
	"time"

	outputport "github.com/chitacloud/droidflash/ports/output-port"
)

var (
	// ErrBinaryNotFound is returned when a required tool is not on PATH.
	ErrBinaryNotFound = errors.New("binary not found")

	// ErrNoDevice is returned when an action requires a device in a context
	// that is not currently attached.
	ErrNoDevice = errors.New("no device in required context")
)

// ExitStatus is the result of running an Invocation.
//
// Non-negative values are the exit code reported by the wrapped tool.
type ExitStatus int

const (
	// ExitNotStarted means the process could not be started or observed.
	ExitNotStarted ExitStatus = -1

	// ExitNotExecuted means the invocation was a dry-run.
	ExitNotExecuted ExitStatus = -2

	// ExitTerminated means the process ran but was stopped by a signal.
	ExitTerminated ExitStatus = -3
)

// Success returns true if the tool ran and exited with code 0.
func (s ExitStatus) Success() bool {
	return s == 0
}

// Failed returns true if a process ran and did not exit with code 0.
func (s ExitStatus) Failed() bool {
	return s > 0 || s == ExitTerminated
}

// Executed returns true if a process actually ran to completion.
func (s ExitStatus) Executed() bool {
	return s >= 0
}

// Invocation is one request to run an external tool.
type Invocation struct {
	// Args is the argument vector, Args[0] is the binary.
	Args []string

	// DryRun causes the runner to annotate the transcript without
	// starting a process.
	DryRun bool
}

// NewInvocation returns an invocation of bin with the given arguments.
func NewInvocation(dryRun bool, bin string, args ...string) Invocation {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, bin)
	argv = append(argv, args...)

	return Invocation{Args: argv, DryRun: dryRun}
}

// Display returns the space-joined argument vector.
func (i Invocation) Display() string {
	return strings.Join(i.Args, " ")
}

// ProcessHandle is a live OS process started by a Runner.
type ProcessHandle interface {
	// ID returns a unique identifier for this invocation.
	ID() string

	// PID returns the OS process ID.
	PID() int

	// Display returns the command line of the process.
	Display() string

	// IsRunning returns true until the process has been reaped.
	IsRunning() bool

	// ExitCode returns the exit code once the process has been reaped.
	ExitCode() (int, bool)

	// Terminate requests graceful termination.
	Terminate() error

	// Kill forcibly stops the process.
	Kill() error

	// TerminationRequested returns true if Terminate or Kill was called.
	TerminationRequested() bool
}

// Runner runs invocations and streams their output.
type Runner interface {
	// Run executes inv, blocking until the process exits. It never returns
	// an error, failures are written to the output and reflected in the
	// returned status.
	Run(ctx context.Context, inv Invocation) ExitStatus
}

// RunnerFactory creates runners that publish to a given output.
type RunnerFactory interface {
	// NewRunner creates a Runner that publishes transcript lines to out.
	NewRunner(out outputport.Publisher) (Runner, error)
}

// ProbeResult is the captured output of a probe.
type ProbeResult struct {
	Stdout string
	Stderr string
}

// Combined returns stdout followed by stderr.
func (r ProbeResult) Combined() string {
	return r.Stdout + "\n" + r.Stderr
}

// Prober runs short, captured commands such as device listings.
type Prober interface {
	// Probe runs args with the given timeout. A non-zero exit is not an
	// error, the output is returned as-is.
	Probe(ctx context.Context, timeout time.Duration, args ...string) (ProbeResult, error)

	// Available returns true if bin can be found on PATH.
	Available(bin string) bool
}

package defaultcommandadapter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	registryport "github.com/chitacloud/droidflash/ports/registry-port"
)

var (
	_ commandport.Runner        = (*DefaultRunner)(nil)
	_ commandport.RunnerFactory = (*DefaultRunnerFactory)(nil)
)

// DefaultRunner implements Runner using os/exec.
type DefaultRunner struct {
	// Output receives the transcript lines.
	Output outputport.Publisher

	// Registry tracks the live process. It may be nil.
	Registry registryport.Registry

	Logger loggerport.Logger

	// LookPath resolves binaries. If nil, exec.LookPath is used.
	LookPath func(file string) (string, error)
}

// DefaultRunnerFactory implements RunnerFactory
type DefaultRunnerFactory struct {
	Registry registryport.Registry
	Logger   loggerport.Logger
}

// NewRunner creates a DefaultRunner that publishes to out.
func (f *DefaultRunnerFactory) NewRunner(out outputport.Publisher) (commandport.Runner, error) {
	if out == nil {
		return nil, fmt.Errorf("output cannot be nil")
	}

	return &DefaultRunner{
		Output:   out,
		Registry: f.Registry,
		Logger:   f.Logger,
	}, nil
}

// Run executes inv and streams its merged stdout/stderr line by line.
//
// If ctx is canceled while the process is running, the process is asked to
// terminate.
func (r *DefaultRunner) Run(ctx context.Context, inv commandport.Invocation) commandport.ExitStatus {
	logger := zaploggeradapter.OrNop(r.Logger)
	display := inv.Display()

	r.Output.Publish(fmt.Sprintf("\n$ %s\n", display))

	if inv.DryRun {
		r.Output.Publish("[DRY-RUN] Command not executed.\n")
		return commandport.ExitNotExecuted
	}

	if len(inv.Args) == 0 || inv.Args[0] == "" {
		r.Output.Publish("Error: empty command\n")
		return commandport.ExitNotStarted
	}

	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(inv.Args[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			r.Output.Publish(fmt.Sprintf("Error: binary not found: %s\n", inv.Args[0]))
		} else {
			r.Output.Publish(fmt.Sprintf("Error starting command %s: %v\n", display, err))
		}
		return commandport.ExitNotStarted
	}

	h, stream, err := startProcess(path, inv.Args[1:], display)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.Output.Publish(fmt.Sprintf("Error: binary not found: %s\n", inv.Args[0]))
		} else {
			r.Output.Publish(fmt.Sprintf("Error starting command %s: %v\n", display, err))
		}
		return commandport.ExitNotStarted
	}

	logger = logger.With("invocation", h.ID(), "pid", h.PID())
	logger.Debug("process started", "command", display)

	if r.Registry != nil {
		r.Registry.Register(h)
		defer r.Registry.Deregister(h)
	}

	stop := context.AfterFunc(ctx, func() {
		if err := h.Terminate(); err != nil {
			logger.Warn("failed to terminate canceled process", "error", err)
		}
	})
	defer stop()

	r.stream(stream)
	stream.Close()

	code, err := h.wait()
	if err != nil {
		r.Output.Publish(fmt.Sprintf("\n[Process wait error: %v]\n", err))
		logger.Error("process wait failed", "error", err)
		return commandport.ExitNotStarted
	}

	if commandport.ExitStatus(code) == commandport.ExitTerminated {
		r.Output.Publish(fmt.Sprintf("\n[Process terminated by signal: %v]\n", h.Signal()))
		logger.Debug("process terminated", "signal", h.Signal(), "requested", h.TerminationRequested())
		return commandport.ExitTerminated
	}

	r.Output.Publish(fmt.Sprintf("\n[Process exited with code %d]\n", code))
	logger.Debug("process exited", "code", code, "terminated", h.TerminationRequested())

	return commandport.ExitStatus(code)
}

// stream publishes each line of rd verbatim as soon as it is read.
func (r *DefaultRunner) stream(rd io.Reader) {
	br := bufio.NewReader(rd)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			r.Output.Publish(line)
		}

		if err == nil {
			continue
		}

		if !errors.Is(err, io.EOF) {
			r.Output.Publish(fmt.Sprintf("Error reading subprocess output: %v\n", err))
		}
		return
	}
}

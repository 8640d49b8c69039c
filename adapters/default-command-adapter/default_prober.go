package defaultcommandadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/dogmatiq/linger"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
)

var _ commandport.Prober = (*DefaultProber)(nil)

// DefaultProbeTimeout is used when Probe is called with a zero timeout.
var DefaultProbeTimeout = 3 * time.Second

// DefaultProber implements Prober using os/exec.
type DefaultProber struct {
	Logger loggerport.Logger
}

// Probe runs args with stdout and stderr captured separately.
func (p *DefaultProber) Probe(ctx context.Context, timeout time.Duration, args ...string) (commandport.ProbeResult, error) {
	if len(args) == 0 {
		return commandport.ProbeResult{}, fmt.Errorf("command cannot be empty")
	}

	ctx, cancel := linger.ContextWithTimeout(ctx, timeout, DefaultProbeTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := commandport.ProbeResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("probe %s: %w", args[0], ctx.Err())
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		if errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("%w: %s", commandport.ErrBinaryNotFound, args[0])
		}
		zaploggeradapter.OrNop(p.Logger).Debug("probe failed", "command", args, "error", err)
		return res, err
	}

	return res, nil
}

// Available returns true if bin is on PATH.
func (p *DefaultProber) Available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

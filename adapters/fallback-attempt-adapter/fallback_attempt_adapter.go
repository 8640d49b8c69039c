package fallbackattemptadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	defaultoutputadapter "github.com/chitacloud/droidflash/adapters/default-output-adapter"
	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	promptport "github.com/chitacloud/droidflash/ports/prompt-port"
)

var (
	// DefaultProbeTimeout bounds the device listing done before attempting.
	DefaultProbeTimeout = 3 * time.Second

	// DefaultGetvarTimeout bounds the "getvar all" diagnostic dump.
	DefaultGetvarTimeout = 6 * time.Second
)

// State is a step of an attempt.
type State int

const (
	NotStarted State = iota
	Probing
	Confirming
	Attempting
	Succeeded
	ExhaustedFailed
	UserCancelled
	NoDevice
	BinaryMissing
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Probing:
		return "probing"
	case Confirming:
		return "confirming"
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case ExhaustedFailed:
		return "exhausted"
	case UserCancelled:
		return "cancelled"
	case NoDevice:
		return "no-device"
	case BinaryMissing:
		return "binary-missing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Attempt records one candidate that was run.
type Attempt struct {
	Invocation commandport.Invocation
	Status     commandport.ExitStatus
}

// Outcome is the terminal result of Protocol.Attempt.
type Outcome struct {
	State    State
	Attempts []Attempt

	// Winner is the index into Attempts of the candidate that exited 0, or
	// -1.
	Winner int

	VendorHint string

	// LogErr holds any failure writing the session log. It never affects
	// State.
	LogErr error
}

// Options are chosen by the operator per attempt.
type Options struct {
	DryRun bool
	Force  bool

	// LogFile, if set, receives a copy of the session in append mode.
	LogFile string
}

// Protocol runs an ordered list of candidate bootloader commands until one
// exits 0.
type Protocol struct {
	// Title appears in the START and END banners.
	Title string

	// Action names the state change in operator messages.
	Action string

	Fastboot   string
	Candidates [][]string

	// Diagnostics enables the "getvar all" dump and vendor hint.
	Diagnostics bool

	// ConfirmWord, if set, must be typed to proceed. Otherwise a yes/no
	// confirmation is asked with ConfirmMessage.
	ConfirmWord    string
	ConfirmMessage string

	// SuccessMessage is published when a candidate exits 0.
	SuccessMessage string

	RunnerFactory commandport.RunnerFactory
	Prober        commandport.Prober
	Prompter      promptport.Prompter
	Output        outputport.Publisher
	Logger        loggerport.Logger

	ProbeTimeout  time.Duration
	GetvarTimeout time.Duration

	// Now is used for session log timestamps. If nil, time.Now is used.
	Now func() time.Time
}

// Attempt drives the protocol to a terminal state. It blocks on the
// Prompter and on every candidate, so callers run it on its own goroutine.
func (p *Protocol) Attempt(ctx context.Context, opts Options) Outcome {
	logger := zaploggeradapter.OrNop(p.Logger).With("protocol", p.Title)
	out := Outcome{State: NotStarted, Winner: -1}

	p.Output.Publish(fmt.Sprintf("\n=== START %s ===\n", p.Title))

	out.State = Probing
	if !p.Prober.Available(p.Fastboot) {
		p.Output.Publish("fastboot not found in PATH. Aborting.\n")
		out.State = BinaryMissing
		return out
	}

	if !p.deviceAttached(ctx) {
		p.Output.Publish("No fastboot device detected. Put device in bootloader/fastboot mode.\n")
		out.State = NoDevice
		return out
	}

	var dump string
	if p.Diagnostics {
		dump = p.getvarAll(ctx)
		p.Output.Publish("[fastboot getvar all]\n")
		p.Output.Publish(dump + "\n")

		out.VendorHint = VendorHint(dump)
		if out.VendorHint != "" {
			p.Output.Publish(fmt.Sprintf("[Vendor hint] %s\n", out.VendorHint))
		}
	}

	if !opts.DryRun && !opts.Force {
		out.State = Confirming
		if !p.confirm() {
			p.Output.Publish(fmt.Sprintf("User cancelled %s (confirmation not given).\n", p.Action))
			p.Output.Publish(fmt.Sprintf("=== END %s ===\n", p.Title))
			out.State = UserCancelled
			logger.Info("attempt cancelled by operator")
			return out
		}
	}

	var session *sessionLog
	publisher := p.Output

	if opts.LogFile != "" {
		var err error
		session, err = openSessionLog(opts.LogFile, p.now())
		if err != nil {
			logger.Warn("session log unavailable", "file", opts.LogFile, "error", err)
			p.Output.Publish(fmt.Sprintf("Warning: could not open log file: %v\n", err))
			out.LogErr = err
		} else {
			logger = logger.With("session", session.ID)
			if p.Diagnostics {
				session.WriteString("[fastboot getvar all]\n" + dump + "\n")
			}
			publisher = &defaultoutputadapter.TeePublisher{Target: p.Output, Mirror: session}
		}
	}

	out.State = Attempting
	out.State, out.Attempts, out.Winner = p.attempt(ctx, publisher, opts.DryRun, logger)

	p.Output.Publish(fmt.Sprintf("=== END %s ===\n", p.Title))

	if session != nil {
		if tee, ok := publisher.(*defaultoutputadapter.TeePublisher); ok {
			session.Fail(tee.Err())
		}
		if err := session.Close(); err != nil {
			logger.Warn("failed to write session log", "file", opts.LogFile, "error", err)
			out.LogErr = err
		}
	}

	logger.Info("attempt finished", "state", out.State.String(), "attempts", len(out.Attempts))
	return out
}

func (p *Protocol) attempt(
	ctx context.Context,
	out outputport.Publisher,
	dryRun bool,
	logger loggerport.Logger,
) (State, []Attempt, int) {
	runner, err := p.RunnerFactory.NewRunner(out)
	if err != nil {
		out.Publish(fmt.Sprintf("Error: %v\n", err))
		return ExhaustedFailed, nil, -1
	}

	var attempts []Attempt

	for _, args := range p.Candidates {
		if ctx.Err() != nil {
			out.Publish("Attempt interrupted.\n")
			return ExhaustedFailed, attempts, -1
		}

		inv := commandport.NewInvocation(dryRun, p.Fastboot, args...)
		out.Publish(fmt.Sprintf("Trying: %s\n", inv.Display()))

		status := runner.Run(ctx, inv)
		attempts = append(attempts, Attempt{Invocation: inv, Status: status})
		logger.Debug("candidate finished", "command", inv.Display(), "status", int(status))

		if status.Success() {
			out.Publish(p.SuccessMessage + "\n")
			return Succeeded, attempts, len(attempts) - 1
		}

		out.Publish("No success indication - trying next method.\n")
	}

	return ExhaustedFailed, attempts, -1
}

func (p *Protocol) deviceAttached(ctx context.Context) bool {
	res, err := p.Prober.Probe(ctx, p.probeTimeout(), p.Fastboot, "devices")
	if err != nil {
		zaploggeradapter.OrNop(p.Logger).Debug("fastboot device probe failed", "error", err)
		return false
	}
	return strings.TrimSpace(res.Stdout) != ""
}

func (p *Protocol) getvarAll(ctx context.Context) string {
	timeout := p.GetvarTimeout
	if timeout <= 0 {
		timeout = DefaultGetvarTimeout
	}

	res, err := p.Prober.Probe(ctx, timeout, p.Fastboot, "getvar", "all")
	if err != nil {
		return fmt.Sprintf("Error getting getvar all: %v", err)
	}
	return res.Combined()
}

func (p *Protocol) confirm() bool {
	if p.ConfirmWord == "" {
		return p.Prompter.Confirm(p.ConfirmMessage)
	}

	text, ok := p.Prompter.PromptText(p.ConfirmMessage, "")
	return ok && strings.EqualFold(strings.TrimSpace(text), p.ConfirmWord)
}

func (p *Protocol) probeTimeout() time.Duration {
	if p.ProbeTimeout <= 0 {
		return DefaultProbeTimeout
	}
	return p.ProbeTimeout
}

func (p *Protocol) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

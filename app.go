package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	androidtoolsetadapter "github.com/chitacloud/droidflash/adapters/android-toolset-adapter"
	consolepromptadapter "github.com/chitacloud/droidflash/adapters/console-prompt-adapter"
	defaultcommandadapter "github.com/chitacloud/droidflash/adapters/default-command-adapter"
	defaultdetectoradapter "github.com/chitacloud/droidflash/adapters/default-detector-adapter"
	defaultdispatchadapter "github.com/chitacloud/droidflash/adapters/default-dispatch-adapter"
	defaultmonitoradapter "github.com/chitacloud/droidflash/adapters/default-monitor-adapter"
	defaultoutputadapter "github.com/chitacloud/droidflash/adapters/default-output-adapter"
	defaultregistryadapter "github.com/chitacloud/droidflash/adapters/default-registry-adapter"
	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	ziparchiveadapter "github.com/chitacloud/droidflash/adapters/zip-archive-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	promptport "github.com/chitacloud/droidflash/ports/prompt-port"
)

// app is the wired set of adapters one command runs against.
type app struct {
	cfg Config

	logger     *zaploggeradapter.ZapLogger
	queue      *defaultoutputadapter.Queue
	transcript *defaultoutputadapter.Transcript
	registry   *defaultregistryadapter.DefaultRegistry
	runners    *defaultcommandadapter.DefaultRunnerFactory
	runner     commandport.Runner
	prober     *defaultcommandadapter.DefaultProber
	detector   *defaultdetectoradapter.DefaultDetector
	monitor    *defaultmonitoradapter.Monitor
	dispatcher *defaultdispatchadapter.Dispatcher
	prompter   promptport.Prompter
	toolset    *androidtoolsetadapter.Toolset
	extractor  *ziparchiveadapter.ZipExtractor
}

// newApp wires the adapters. Transcript output is echoed to stdout and
// prompts read from stdin.
func newApp(cfg Config, stdin io.Reader, stdout io.Writer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := zaploggeradapter.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		queue:      defaultoutputadapter.NewQueue(),
		transcript: defaultoutputadapter.NewTranscript(stdout),
		registry: &defaultregistryadapter.DefaultRegistry{
			GracePeriod: cfg.GracePeriod,
			Logger:      logger,
		},
		prober:  &defaultcommandadapter.DefaultProber{Logger: logger},
		toolset: &androidtoolsetadapter.Toolset{ADB: cfg.ADB, Fastboot: cfg.Fastboot, DryRun: cfg.DryRun},
		extractor: &ziparchiveadapter.ZipExtractor{
			Logger: logger,
		},
	}

	a.runners = &defaultcommandadapter.DefaultRunnerFactory{Registry: a.registry, Logger: logger}

	a.runner, err = a.runners.NewRunner(a.queue)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	a.detector = &defaultdetectoradapter.DefaultDetector{
		ADB:      cfg.ADB,
		Fastboot: cfg.Fastboot,
		Prober:   a.prober,
		Timeout:  cfg.ProbeTimeout,
		Logger:   logger,
	}

	a.monitor = &defaultmonitoradapter.Monitor{
		Output:         a.queue,
		Sink:           a.transcript,
		Detector:       a.detector,
		Registry:       a.registry,
		DrainInterval:  cfg.DrainInterval,
		DetectInterval: cfg.DetectInterval,
		Logger:         logger,
	}

	a.dispatcher = &defaultdispatchadapter.Dispatcher{
		Runner: a.runner,
		Logger: logger,
		Pacing: cfg.Pacing,
	}

	console := consolepromptadapter.New(stdin, stdout)
	console.AssumeYes = cfg.AssumeYes

	a.prompter = &flushingPrompter{next: console, flush: a.monitor.Flush}

	return a, nil
}

// run executes action while the monitor drains output. When ctx is canceled
// every running process is stopped. The transcript is fully flushed before
// run returns.
func (a *app) run(ctx context.Context, action func(ctx context.Context) error) error {
	stop := context.AfterFunc(ctx, func() {
		if a.registry.TerminateAll(context.Background()) {
			a.logger.Info("stopped running processes")
		}
	})
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	monitorCtx, stopMonitor := context.WithCancel(gctx)

	g.Go(func() error {
		return a.monitor.Run(monitorCtx)
	})

	g.Go(func() error {
		defer stopMonitor()

		err := action(gctx)
		a.dispatcher.Wait()
		return err
	})

	return g.Wait()
}

func (a *app) close() {
	// Syncing stderr fails on some platforms; there is nothing to do about it.
	_ = a.logger.Sync()
}

// exec runs inv in the foreground.
func (a *app) exec(ctx context.Context, inv commandport.Invocation) error {
	return statusError(inv, a.runner.Run(ctx, inv))
}

// sequence runs invs one after another with the dispatcher's pacing. Every
// failure is reported.
func (a *app) sequence(ctx context.Context, invs ...commandport.Invocation) error {
	var err error
	for res := range a.dispatcher.SubmitSequence(ctx, invs...) {
		err = multierr.Append(err, statusError(res.Invocation, res.Status))
	}
	return err
}

func (a *app) publish(format string, args ...any) {
	a.queue.Publish(fmt.Sprintf(format, args...))
}

// confirm asks a yes/no question unless dry-run is on.
func (a *app) confirm(message string) bool {
	if a.cfg.DryRun {
		return true
	}
	return a.prompter.Confirm(message)
}

func statusError(inv commandport.Invocation, status commandport.ExitStatus) error {
	switch {
	case status.Success(), status == commandport.ExitNotExecuted:
		return nil
	case status == commandport.ExitNotStarted:
		return fmt.Errorf("failed to run %s", inv.Display())
	case status == commandport.ExitTerminated:
		return fmt.Errorf("%s was terminated", inv.Display())
	default:
		return fmt.Errorf("%s exited with code %d", inv.Display(), int(status))
	}
}

// flushingPrompter writes out pending transcript output before every
// question so the operator sees what led to it.
type flushingPrompter struct {
	next  promptport.Prompter
	flush func() error
}

var _ promptport.Prompter = (*flushingPrompter)(nil)

func (p *flushingPrompter) Confirm(message string) bool {
	_ = p.flush()
	return p.next.Confirm(message)
}

func (p *flushingPrompter) PromptText(message, def string) (string, bool) {
	_ = p.flush()
	return p.next.PromptText(message, def)
}

func (p *flushingPrompter) ChooseFile(message string) (string, bool) {
	_ = p.flush()
	return p.next.ChooseFile(message)
}

func (p *flushingPrompter) ChooseFolder(message string) (string, bool) {
	_ = p.flush()
	return p.next.ChooseFolder(message)
}

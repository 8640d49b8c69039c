package batchflashadapter

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dogmatiq/linger"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	promptport "github.com/chitacloud/droidflash/ports/prompt-port"
)

var (
	// DefaultDelay is the pause after each executed row.
	DefaultDelay = 300 * time.Millisecond

	// DefaultProbeTimeout bounds the device listing done before the batch.
	DefaultProbeTimeout = 3 * time.Second
)

// ResultKind is the recorded outcome of a row.
type ResultKind int

const (
	Pending ResultKind = iota
	Success
	Failed
	Skipped
)

// Result is the last result of a row. Code is only meaningful for Failed.
type Result struct {
	Kind ResultKind
	Code commandport.ExitStatus
}

func (r Result) String() string {
	switch r.Kind {
	case Success:
		return "success"
	case Failed:
		return fmt.Sprintf("failed(%d)", r.Code)
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Row is one planned flash operation.
type Row struct {
	Enabled   bool
	Partition string
	Source    string
	Result    Result
}

// NewRow returns an enabled, pending row.
func NewRow(partition, source string) *Row {
	return &Row{Enabled: true, Partition: partition, Source: source}
}

// Report summarises a batch run.
type Report struct {
	Selected  int
	Succeeded int
	Failed    int
	Skipped   int

	// Aborted is true if the operator stopped the batch on a missing file.
	Aborted bool
}

// Workflow flashes rows in order, one at a time.
type Workflow struct {
	Fastboot string
	Runner   commandport.Runner
	Prober   commandport.Prober
	Prompter promptport.Prompter
	Output   outputport.Publisher
	Logger   loggerport.Logger

	// Delay is the pause after each executed row. If zero, DefaultDelay is
	// used.
	Delay time.Duration

	ProbeTimeout time.Duration
}

// Run visits every enabled row in order. Disabled rows are not touched.
//
// An error is returned only if a precondition fails, in which case no row
// is visited. A canceled ctx stops the batch between rows and is reported
// as an error; rows not yet visited stay Pending.
func (w *Workflow) Run(ctx context.Context, rows []*Row, dryRun bool) (Report, error) {
	logger := zaploggeradapter.OrNop(w.Logger)

	var selected []*Row
	for _, r := range rows {
		if r.Enabled {
			selected = append(selected, r)
		}
	}

	report := Report{Selected: len(selected)}

	if !w.Prober.Available(w.Fastboot) {
		w.Output.Publish("[MultiFlash] fastboot not found in PATH.\n")
		return report, fmt.Errorf("%w: %s", commandport.ErrBinaryNotFound, w.Fastboot)
	}

	if !w.deviceAttached(ctx) {
		w.Output.Publish("[MultiFlash] No fastboot device detected. Enter bootloader first.\n")
		return report, commandport.ErrNoDevice
	}

	logger.Info("batch flash started", "rows", len(selected), "dry_run", dryRun)

	for i, r := range selected {
		idx := i + 1

		if err := ctx.Err(); err != nil {
			w.Output.Publish("[MultiFlash] Interrupted.\n")
			return report, err
		}

		part := strings.TrimSpace(r.Partition)
		path := strings.TrimSpace(r.Source)

		if part == "" {
			w.Output.Publish(fmt.Sprintf("[MultiFlash] Skipping row %d: partition name empty.\n", idx))
			r.Result = Result{Kind: Skipped}
			report.Skipped++
			continue
		}

		if !exists(path) {
			msg := fmt.Sprintf("File for partition '%s' not found: %s\nSkip this row and continue?", part, path)
			if !w.Prompter.Confirm(msg) {
				w.Output.Publish(fmt.Sprintf("[MultiFlash] Aborted by user on missing file for partition %s.\n", part))
				report.Aborted = true
				logger.Info("batch flash aborted", "row", idx, "partition", part)
				return report, nil
			}

			w.Output.Publish(fmt.Sprintf("[MultiFlash] Skipped row %d (file not found).\n", idx))
			r.Result = Result{Kind: Skipped}
			report.Skipped++
			continue
		}

		msg := fmt.Sprintf("Flash partition '%s' with file:\n%s\n\nProceed for this row?", part, path)
		if dryRun {
			msg = fmt.Sprintf("[DRY-RUN] Would execute: %s flash %s %s\nProceed for this row?", w.Fastboot, part, path)
		}
		if !w.Prompter.Confirm(msg) {
			w.Output.Publish(fmt.Sprintf("[MultiFlash] User skipped row %d: %s\n", idx, part))
			r.Result = Result{Kind: Skipped}
			report.Skipped++
			continue
		}

		inv := commandport.NewInvocation(dryRun, w.Fastboot, "flash", part, path)
		w.Output.Publish(fmt.Sprintf("\n[MultiFlash] Executing row %d/%d: %s\n", idx, len(selected), inv.Display()))

		status := w.Runner.Run(ctx, inv)

		switch {
		case status.Success():
			w.Output.Publish(fmt.Sprintf("[MultiFlash] Row %d completed successfully.\n", idx))
			r.Result = Result{Kind: Success}
			report.Succeeded++
		case status == commandport.ExitNotExecuted:
			w.Output.Publish(fmt.Sprintf("[MultiFlash] Row %d simulated (dry-run).\n", idx))
			r.Result = Result{Kind: Skipped}
			report.Skipped++
		default:
			w.Output.Publish(fmt.Sprintf("[MultiFlash] Row %d ended with code %d.\n", idx, status))
			r.Result = Result{Kind: Failed, Code: status}
			report.Failed++
		}

		if err := linger.Sleep(ctx, w.Delay, DefaultDelay); err != nil {
			w.Output.Publish("[MultiFlash] Interrupted.\n")
			return report, err
		}
	}

	w.Output.Publish("\n[MultiFlash] All selected rows processed.\n")
	logger.Info("batch flash finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)

	return report, nil
}

func (w *Workflow) deviceAttached(ctx context.Context) bool {
	timeout := w.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	res, err := w.Prober.Probe(ctx, timeout, w.Fastboot, "devices")
	if err != nil {
		zaploggeradapter.OrNop(w.Logger).Debug("fastboot device probe failed", "error", err)
		return false
	}
	return strings.TrimSpace(res.Stdout) != ""
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

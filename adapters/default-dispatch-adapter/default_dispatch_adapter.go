package defaultdispatchadapter

import (
	"context"
	"sync"
	"time"

	"github.com/dogmatiq/linger"
	"github.com/google/uuid"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
)

// DefaultPacing is the pause between the invocations of a sequence.
var DefaultPacing = 80 * time.Millisecond

// Request is one unit of work handed to the dispatcher.
type Request struct {
	ID         string
	Invocation commandport.Invocation
}

// NewRequest wraps inv with a fresh ID.
func NewRequest(inv commandport.Invocation) Request {
	return Request{ID: uuid.NewString(), Invocation: inv}
}

// Result is the outcome of a Request.
type Result struct {
	Request
	Status commandport.ExitStatus
}

// Dispatcher runs requests on worker goroutines so that the caller never
// blocks on a running process.
type Dispatcher struct {
	Runner commandport.Runner
	Logger loggerport.Logger

	// Pacing is the pause between invocations of a sequence. If zero,
	// DefaultPacing is used.
	Pacing time.Duration

	wg sync.WaitGroup
}

// Submit runs inv on its own goroutine. The returned channel receives
// exactly one result and is then closed.
func (d *Dispatcher) Submit(ctx context.Context, inv commandport.Invocation) <-chan Result {
	req := NewRequest(inv)
	results := make(chan Result, 1)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(results)

		results <- d.run(ctx, req)
	}()

	return results
}

// SubmitSequence runs invs one after another on a single goroutine,
// pausing between them. Results are delivered in order and the channel is
// closed when the sequence ends. A canceled ctx stops the sequence before
// the next invocation starts.
func (d *Dispatcher) SubmitSequence(ctx context.Context, invs ...commandport.Invocation) <-chan Result {
	results := make(chan Result, len(invs))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(results)

		for i, inv := range invs {
			if i > 0 {
				if err := linger.Sleep(ctx, d.Pacing, DefaultPacing); err != nil {
					return
				}
			}

			if ctx.Err() != nil {
				return
			}

			results <- d.run(ctx, NewRequest(inv))
		}
	}()

	return results
}

// Wait blocks until every submitted request has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, req Request) Result {
	logger := zaploggeradapter.OrNop(d.Logger).With("request", req.ID)
	logger.Debug("dispatching request", "command", req.Invocation.Display(), "dry_run", req.Invocation.DryRun)

	status := d.Runner.Run(ctx, req.Invocation)

	logger.Debug("request finished", "status", int(status))
	return Result{Request: req, Status: status}
}

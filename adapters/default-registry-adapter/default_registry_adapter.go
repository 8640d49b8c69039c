package defaultregistryadapter

import (
	"context"
	"sync"
	"time"

	"github.com/dogmatiq/linger"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	registryport "github.com/chitacloud/droidflash/ports/registry-port"
)

var _ registryport.Registry = (*DefaultRegistry)(nil)

// DefaultGracePeriod is how long TerminateAll waits after a graceful
// termination request before killing a process.
var DefaultGracePeriod = 200 * time.Millisecond

// DefaultRegistry is a mutex-guarded set of live processes.
//
// The zero value is ready to use.
type DefaultRegistry struct {
	// GracePeriod overrides DefaultGracePeriod if positive.
	GracePeriod time.Duration

	Logger loggerport.Logger

	mu      sync.Mutex
	handles []commandport.ProcessHandle
}

// Register adds h to the registry. Registering the same handle twice has no
// effect.
func (r *DefaultRegistry) Register(h commandport.ProcessHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, x := range r.handles {
		if x == h {
			return
		}
	}

	r.handles = append(r.handles, h)
}

// Deregister removes h if present.
func (r *DefaultRegistry) Deregister(h commandport.ProcessHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, x := range r.handles {
		if x == h {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the registered handles in registration order.
func (r *DefaultRegistry) Snapshot() []commandport.ProcessHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]commandport.ProcessHandle, len(r.handles))
	copy(out, r.handles)
	return out
}

// Busy returns true if any registered process is running.
func (r *DefaultRegistry) Busy() bool {
	for _, h := range r.Snapshot() {
		if h.IsRunning() {
			return true
		}
	}
	return false
}

// TerminateAll asks every running process to terminate, waits once for the
// grace period and kills any that are still alive.
//
// Processes that exit before they are signalled are skipped. Signalling
// failures are logged and otherwise ignored.
func (r *DefaultRegistry) TerminateAll(ctx context.Context) bool {
	logger := zaploggeradapter.OrNop(r.Logger)

	var signalled []commandport.ProcessHandle
	for _, h := range r.Snapshot() {
		if !h.IsRunning() {
			continue
		}

		if err := h.Terminate(); err != nil {
			logger.Debug("terminate failed", "invocation", h.ID(), "error", err)
		}
		signalled = append(signalled, h)
	}

	if len(signalled) == 0 {
		return false
	}

	// A canceled ctx cuts the grace period short, the kills still happen.
	_ = linger.Sleep(ctx, r.GracePeriod, DefaultGracePeriod)

	for _, h := range signalled {
		if h.IsRunning() {
			if err := h.Kill(); err != nil {
				logger.Debug("kill failed", "invocation", h.ID(), "error", err)
			}
		}

		logger.Info("process stopped", "invocation", h.ID(), "command", h.Display())
	}

	return true
}

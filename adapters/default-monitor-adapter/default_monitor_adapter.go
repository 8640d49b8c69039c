package defaultmonitoradapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	deviceport "github.com/chitacloud/droidflash/ports/device-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	registryport "github.com/chitacloud/droidflash/ports/registry-port"
)

var (
	// DefaultDrainInterval is how often the output channel is drained.
	DefaultDrainInterval = 100 * time.Millisecond

	// DefaultDetectInterval is how often the device context is probed.
	DefaultDetectInterval = 1500 * time.Millisecond
)

// Sink receives drained transcript chunks in order.
type Sink interface {
	Append(chunks ...string) error
}

// Status is what the monitor last observed.
type Status struct {
	Device deviceport.Snapshot

	// Busy is true while any registered process is running.
	Busy bool
}

// String renders the status line.
func (s Status) String() string {
	state := "idle"
	if s.Busy {
		state = "running"
	}

	if !s.Device.Connected() {
		return fmt.Sprintf("no device | %s", state)
	}

	return fmt.Sprintf("%s: %s | %s", s.Device.Mode, s.Device.Descriptor, state)
}

// Monitor is the single consumer of an output channel. It also polls the
// device context and the registry's busy flag.
type Monitor struct {
	Output outputport.Channel
	Sink   Sink

	// Detector may be nil, in which case no device polling happens.
	Detector deviceport.Detector

	// Registry may be nil, in which case Busy is always false.
	Registry registryport.Registry

	DrainInterval  time.Duration
	DetectInterval time.Duration

	// OnStatus is called from the monitor goroutine whenever the status
	// changes.
	OnStatus func(Status)

	Logger loggerport.Logger

	flushMu sync.Mutex
	last    Status
	started bool
}

// Run drains and polls until ctx is canceled. Pending output is drained one
// last time before returning.
//
// Detection runs on its own goroutine so a slow probe never delays
// draining. At most one detection is in flight at a time.
func (m *Monitor) Run(ctx context.Context) error {
	logger := zaploggeradapter.OrNop(m.Logger)

	drain := m.DrainInterval
	if drain <= 0 {
		drain = DefaultDrainInterval
	}

	detect := m.DetectInterval
	if detect <= 0 {
		detect = DefaultDetectInterval
	}

	ticker := time.NewTicker(drain)
	defer ticker.Stop()

	results := make(chan deviceport.Snapshot, 1)
	inFlight := false
	var lastDetect time.Time
	device := m.last.Device

	for {
		if m.Detector != nil && !inFlight && time.Since(lastDetect) >= detect {
			inFlight = true
			lastDetect = time.Now()

			go func() {
				results <- m.Detector.Detect(ctx)
			}()
		}

		select {
		case <-ctx.Done():
			return m.Flush()

		case snap := <-results:
			inFlight = false
			if snap != device {
				logger.Info("device context changed", "from", device.Mode.String(), "to", snap.Mode.String(), "descriptor", snap.Descriptor)
			}
			device = snap

		case <-ticker.C:
		}

		if err := m.Flush(); err != nil {
			return err
		}

		m.report(Status{Device: device, Busy: m.busy()})
	}
}

// Flush drains everything pending into the sink. It may be called from
// other goroutines, for example before a prompt is shown.
func (m *Monitor) Flush() error {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	chunks := m.Output.Drain()
	if len(chunks) == 0 {
		return nil
	}

	if err := m.Sink.Append(chunks...); err != nil {
		return fmt.Errorf("failed to append transcript: %w", err)
	}

	return nil
}

func (m *Monitor) busy() bool {
	return m.Registry != nil && m.Registry.Busy()
}

func (m *Monitor) report(s Status) {
	if m.started && s == m.last {
		return
	}

	m.started = true
	m.last = s

	if m.OnStatus != nil {
		m.OnStatus(s)
	}
}

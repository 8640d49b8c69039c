package defaultdetectoradapter

import (
	"context"
	"strings"
	"time"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	deviceport "github.com/chitacloud/droidflash/ports/device-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
)

var _ deviceport.Detector = (*DefaultDetector)(nil)

// DefaultTimeout bounds each listing probe.
var DefaultTimeout = 3 * time.Second

// DefaultDetector implements Detector by listing devices with adb first and
// fastboot second.
type DefaultDetector struct {
	ADB      string
	Fastboot string
	Prober   commandport.Prober

	// Timeout bounds each probe. If zero, DefaultTimeout is used.
	Timeout time.Duration

	Logger loggerport.Logger
}

// Detect returns the first context that reports a device.
func (d *DefaultDetector) Detect(ctx context.Context) deviceport.Snapshot {
	if line, ok := ReadyADBLine(d.list(ctx, d.ADB, "devices", "-l")); ok {
		return deviceport.Snapshot{Mode: deviceport.ModeNormal, Descriptor: line}
	}

	if out := strings.TrimSpace(d.list(ctx, d.Fastboot, "devices")); out != "" {
		return deviceport.Snapshot{Mode: deviceport.ModeBootloader, Descriptor: out}
	}

	return deviceport.Snapshot{Mode: deviceport.ModeNone}
}

// list returns the stdout of a listing command, or "" on any failure.
func (d *DefaultDetector) list(ctx context.Context, bin string, args ...string) string {
	if bin == "" {
		return ""
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res, err := d.Prober.Probe(ctx, timeout, append([]string{bin}, args...)...)
	if err != nil {
		zaploggeradapter.OrNop(d.Logger).Debug("device probe failed", "binary", bin, "error", err)
		return ""
	}

	return res.Stdout
}

// ReadyADBLine returns the first line of an "adb devices -l" listing whose
// status token is "device".
func ReadyADBLine(listing string) (string, bool) {
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "list of devices") {
			continue
		}

		for _, tok := range strings.Fields(line) {
			if tok == "device" {
				return line, true
			}
		}
	}

	return "", false
}

package deviceport

//go:generate mockgen -destination=../../mocks/mock_device_port.go -package=mocks github.com/chitacloud/droidflash/ports/device-port Detector

import "context"

// Mode identifies the tool context a device is attached in.
type Mode int

const (
	// ModeNone means no device was found.
	ModeNone Mode = iota

	// ModeNormal is the installed-OS context (adb).
	ModeNormal

	// ModeBootloader is the flashing context (fastboot).
	ModeBootloader
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "adb"
	case ModeBootloader:
		return "fastboot"
	default:
		return "none"
	}
}

// Snapshot is the result of a single detection poll.
type Snapshot struct {
	Mode       Mode
	Descriptor string
}

// Connected returns true if a device was found in either context.
func (s Snapshot) Connected() bool {
	return s.Mode != ModeNone
}

// Detector probes which context a device is currently attached in.
type Detector interface {
	// Detect returns the current context. It never fails; probe errors
	// are reported as ModeNone.
	Detect(ctx context.Context) Snapshot
}

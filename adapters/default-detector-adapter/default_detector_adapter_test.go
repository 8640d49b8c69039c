package defaultdetectoradapter

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/chitacloud/droidflash/mocks"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	deviceport "github.com/chitacloud/droidflash/ports/device-port"
)

func newDetector(t *testing.T) (*DefaultDetector, *mocks.MockProber) {
	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)

	return &DefaultDetector{
		ADB:      "adb",
		Fastboot: "fastboot",
		Prober:   prober,
	}, prober
}

func TestDefaultDetector_Detect_NormalContext(t *testing.T) {
	d, prober := newDetector(t)

	listing := "List of devices attached\nR58M123ABC     device usb:1-1 product:beyond1 model:SM_G973F\n\n"
	prober.EXPECT().
		Probe(gomock.Any(), DefaultTimeout, "adb", "devices", "-l").
		Return(commandport.ProbeResult{Stdout: listing}, nil)

	snap := d.Detect(context.Background())

	if snap.Mode != deviceport.ModeNormal {
		t.Fatalf("Expected mode adb, got %s", snap.Mode)
	}
	expected := "R58M123ABC     device usb:1-1 product:beyond1 model:SM_G973F"
	if snap.Descriptor != expected {
		t.Errorf("Expected descriptor %q, got %q", expected, snap.Descriptor)
	}
}

func TestDefaultDetector_Detect_UnauthorizedFallsThroughToFastboot(t *testing.T) {
	d, prober := newDetector(t)

	gomock.InOrder(
		prober.EXPECT().
			Probe(gomock.Any(), gomock.Any(), "adb", "devices", "-l").
			Return(commandport.ProbeResult{Stdout: "List of devices attached\nR58M123ABC unauthorized usb:1-1\n"}, nil),
		prober.EXPECT().
			Probe(gomock.Any(), gomock.Any(), "fastboot", "devices").
			Return(commandport.ProbeResult{Stdout: "  0123456789ABCDEF\tfastboot\n"}, nil),
	)

	snap := d.Detect(context.Background())

	if snap.Mode != deviceport.ModeBootloader {
		t.Fatalf("Expected mode fastboot, got %s", snap.Mode)
	}
	if snap.Descriptor != "0123456789ABCDEF\tfastboot" {
		t.Errorf("Expected trimmed fastboot listing, got %q", snap.Descriptor)
	}
}

func TestDefaultDetector_Detect_NoDevice(t *testing.T) {
	d, prober := newDetector(t)

	prober.EXPECT().
		Probe(gomock.Any(), gomock.Any(), "adb", "devices", "-l").
		Return(commandport.ProbeResult{Stdout: "List of devices attached\n\n"}, nil)
	prober.EXPECT().
		Probe(gomock.Any(), gomock.Any(), "fastboot", "devices").
		Return(commandport.ProbeResult{Stdout: " \n\t\n"}, nil)

	snap := d.Detect(context.Background())

	if snap.Connected() {
		t.Errorf("Expected no device, got %+v", snap)
	}
}

func TestDefaultDetector_Detect_ProbeErrorsAreAbsent(t *testing.T) {
	d, prober := newDetector(t)

	prober.EXPECT().
		Probe(gomock.Any(), gomock.Any(), "adb", "devices", "-l").
		Return(commandport.ProbeResult{}, commandport.ErrBinaryNotFound)
	prober.EXPECT().
		Probe(gomock.Any(), gomock.Any(), "fastboot", "devices").
		Return(commandport.ProbeResult{Stdout: "serial\tfastboot"}, errors.New("probe fastboot: context deadline exceeded"))

	snap := d.Detect(context.Background())

	if snap.Mode != deviceport.ModeNone {
		t.Errorf("Expected mode none, got %s", snap.Mode)
	}
}

func TestDefaultDetector_Detect_CustomTimeout(t *testing.T) {
	d, prober := newDetector(t)
	d.Timeout = DefaultTimeout * 2

	prober.EXPECT().
		Probe(gomock.Any(), DefaultTimeout*2, "adb", "devices", "-l").
		Return(commandport.ProbeResult{Stdout: "abc device"}, nil)

	if snap := d.Detect(context.Background()); snap.Mode != deviceport.ModeNormal {
		t.Errorf("Expected mode adb, got %s", snap.Mode)
	}
}

func TestDefaultDetector_Detect_SkipsEmptyBinary(t *testing.T) {
	d, prober := newDetector(t)
	d.ADB = ""

	prober.EXPECT().
		Probe(gomock.Any(), gomock.Any(), "fastboot", "devices").
		Return(commandport.ProbeResult{Stdout: "serial\tfastboot\n"}, nil)

	if snap := d.Detect(context.Background()); snap.Mode != deviceport.ModeBootloader {
		t.Errorf("Expected mode fastboot, got %s", snap.Mode)
	}
}

func TestReadyADBLine(t *testing.T) {
	tests := []struct {
		name    string
		listing string
		line    string
		ok      bool
	}{
		{"empty", "", "", false},
		{"header only", "List of devices attached\n", "", false},
		{"offline", "emulator-5554\toffline\n", "", false},
		{"device in model name only", "abc unauthorized model:device_x\n", "", false},
		{"ready", "List of devices attached\nemulator-5554\tdevice product:sdk\n", "emulator-5554\tdevice product:sdk", true},
		{"first ready wins", "a offline\nb device\nc device\n", "b device", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := ReadyADBLine(tt.listing)
			if ok != tt.ok || line != tt.line {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.line, tt.ok, line, ok)
			}
		})
	}
}

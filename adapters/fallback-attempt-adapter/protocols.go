package fallbackattemptadapter

import (
	"context"
	"strings"
	"time"

	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	promptport "github.com/chitacloud/droidflash/ports/prompt-port"
)

var (
	// UnlockCandidates are tried in order until one exits 0.
	UnlockCandidates = [][]string{
		{"flashing", "unlock"},
		{"oem", "unlock"},
		{"oem", "unlock-go"},
	}

	// LockCandidates are tried in order until one exits 0.
	LockCandidates = [][]string{
		{"flashing", "lock"},
		{"oem", "lock"},
	}
)

// UnlockConfirmWord must be typed to unlock.
const UnlockConfirmWord = "unlock"

// Factory builds the unlock and lock protocols over shared collaborators.
type Factory struct {
	Fastboot      string
	RunnerFactory commandport.RunnerFactory
	Prober        commandport.Prober
	Prompter      promptport.Prompter
	Output        outputport.Publisher
	Logger        loggerport.Logger

	ProbeTimeout  time.Duration
	GetvarTimeout time.Duration
}

// Unlock returns the bootloader unlock protocol.
func (f *Factory) Unlock() *Protocol {
	p := f.base()
	p.Title = "UNIVERSAL UNLOCK ATTEMPT"
	p.Action = "unlock"
	p.Candidates = UnlockCandidates
	p.Diagnostics = true
	p.ConfirmWord = UnlockConfirmWord
	p.ConfirmMessage = "Unlocking will likely ERASE DATA and void warranty.\n" +
		"Type EXACTLY 'unlock' to proceed, or cancel to abort."
	p.SuccessMessage = "Command returned code 0 - likely success."
	return p
}

// Lock returns the bootloader lock protocol. It has no diagnostics step.
func (f *Factory) Lock() *Protocol {
	p := f.base()
	p.Title = "LOCK BOOTLOADER ATTEMPT"
	p.Action = "lock"
	p.Candidates = LockCandidates
	p.ConfirmMessage = "Locking the bootloader with non-stock firmware can brick the device " +
		"and usually erases data. Continue?"
	p.SuccessMessage = "Bootloader lock command returned 0 - likely locked."
	return p
}

func (f *Factory) base() *Protocol {
	return &Protocol{
		Fastboot:      f.Fastboot,
		RunnerFactory: f.RunnerFactory,
		Prober:        f.Prober,
		Prompter:      f.Prompter,
		Output:        f.Output,
		Logger:        f.Logger,
		ProbeTimeout:  f.ProbeTimeout,
		GetvarTimeout: f.GetvarTimeout,
	}
}

// VendorHint returns advisory text for the first vendor family found in a
// "getvar all" dump, or "".
func VendorHint(dump string) string {
	lower := strings.ToLower(dump)

	switch {
	case containsAny(lower, "xiaomi", "redmi"):
		return "Xiaomi detected - may require Mi Unlock (account/token)."
	case containsAny(lower, "samsung"):
		return "Samsung detected - modern Samsung often locked; Odin/vendor tools likely needed."
	case containsAny(lower, "huawei"):
		return "Huawei detected - often requires official unlock code."
	case containsAny(lower, "oneplus", "oppo", "realme"):
		return "OnePlus/OPPO/Realme family - often support fastboot unlock but some models need token."
	default:
		return ""
	}
}

// SuggestUnlock combines the manufacturer property reported in normal mode
// with a bootloader "getvar all" dump. Either may be empty.
func SuggestUnlock(manufacturer, dump string) string {
	manuf := strings.ToLower(strings.TrimSpace(manufacturer))
	all := strings.ToLower(dump)

	switch {
	case containsAny(manuf, "xiaomi") || containsAny(all, "xiaomi", "redmi"):
		return "Xiaomi detected: may need Mi Unlock (official) or token; fastboot may not be enough."
	case containsAny(manuf, "samsung") || containsAny(all, "samsung"):
		return "Samsung detected: many models locked; vendor tools (Odin) often required."
	case containsAny(manuf, "huawei") || containsAny(all, "huawei"):
		return "Huawei detected: often requires official unlock code."
	case containsAny(manuf, "oneplus", "oppo", "realme") || containsAny(all, "oneplus"):
		return "OnePlus/OPPO/Realme: usually supports fastboot oem unlock, but some require token."
	case containsAny(manuf, "pixel", "google") || containsAny(all, "android"):
		return "Google/Pixel or generic Android: fastboot flashing unlock usually works."
	default:
		return `No specific vendor detected. Run "fastboot getvar all" and use dry-run first.`
	}
}

// Suggester gathers what SuggestUnlock needs from whichever context is
// reachable.
type Suggester struct {
	ADB      string
	Fastboot string
	Prober   commandport.Prober
	Timeout  time.Duration
}

// Suggest probes both contexts and returns advisory text. Probe failures
// are treated as empty output.
func (s *Suggester) Suggest(ctx context.Context) string {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultGetvarTimeout
	}

	var manufacturer, dump string

	if res, err := s.Prober.Probe(ctx, timeout, s.ADB, "shell", "getprop", "ro.product.manufacturer"); err == nil {
		manufacturer = res.Stdout
	}

	if res, err := s.Prober.Probe(ctx, timeout, s.Fastboot, "getvar", "all"); err == nil {
		dump = res.Combined()
	}

	return SuggestUnlock(manufacturer, dump)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

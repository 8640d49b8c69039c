package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	DefaultDetectInterval = 1500 * time.Millisecond
	DefaultDrainInterval  = 100 * time.Millisecond
	DefaultProbeTimeout   = 3 * time.Second
	DefaultGetvarTimeout  = 6 * time.Second
	DefaultRowDelay       = 300 * time.Millisecond
	DefaultGracePeriod    = 200 * time.Millisecond
	DefaultPacing         = 80 * time.Millisecond

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

// Config holds the settings shared by every command.
type Config struct {
	ADB      string
	Fastboot string

	DryRun    bool
	Force     bool
	AssumeYes bool

	LogLevel  string
	LogFormat string

	DetectInterval time.Duration
	DrainInterval  time.Duration
	ProbeTimeout   time.Duration
	GetvarTimeout  time.Duration
	RowDelay       time.Duration
	GracePeriod    time.Duration
	Pacing         time.Duration
}

// defaultConfig builds a Config from the environment. Tool paths fall back
// to the bare binary name when they are not on PATH so that the failure is
// reported by the command that needs them.
func defaultConfig(getenv func(string) string, lookPath func(string) (string, error)) Config {
	cfg := Config{
		ADB:            toolPath(getenv("DROIDFLASH_ADB"), "adb", lookPath),
		Fastboot:       toolPath(getenv("DROIDFLASH_FASTBOOT"), "fastboot", lookPath),
		DryRun:         envBool(getenv("DROIDFLASH_DRY_RUN")),
		Force:          envBool(getenv("DROIDFLASH_FORCE")),
		AssumeYes:      envBool(getenv("DROIDFLASH_YES")),
		LogLevel:       envString(getenv("DROIDFLASH_LOG_LEVEL"), DefaultLogLevel),
		LogFormat:      envString(getenv("DROIDFLASH_LOG_FORMAT"), DefaultLogFormat),
		DetectInterval: envDuration(getenv("DROIDFLASH_DETECT_INTERVAL"), DefaultDetectInterval),
		DrainInterval:  DefaultDrainInterval,
		ProbeTimeout:   envDuration(getenv("DROIDFLASH_PROBE_TIMEOUT"), DefaultProbeTimeout),
		GetvarTimeout:  envDuration(getenv("DROIDFLASH_GETVAR_TIMEOUT"), DefaultGetvarTimeout),
		RowDelay:       envDuration(getenv("DROIDFLASH_ROW_DELAY"), DefaultRowDelay),
		GracePeriod:    DefaultGracePeriod,
		Pacing:         DefaultPacing,
	}

	return cfg
}

// bindFlags registers the persistent flags of the root command. The current
// values of cfg are used as flag defaults.
func bindFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&cfg.ADB, "adb", cfg.ADB, "path to the adb binary")
	flags.StringVar(&cfg.Fastboot, "fastboot", cfg.Fastboot, "path to the fastboot binary")
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "print commands instead of running them")
	flags.BoolVar(&cfg.Force, "force", cfg.Force, "skip unlock/lock confirmation")
	flags.BoolVarP(&cfg.AssumeYes, "yes", "y", cfg.AssumeYes, "answer yes to every confirmation")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "diagnostic log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "diagnostic log format (console, json)")
	flags.DurationVar(&cfg.DetectInterval, "detect-interval", cfg.DetectInterval, "device detection poll interval")
	flags.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "timeout for device listings")
	flags.DurationVar(&cfg.GetvarTimeout, "getvar-timeout", cfg.GetvarTimeout, "timeout for fastboot getvar all")
	flags.DurationVar(&cfg.RowDelay, "row-delay", cfg.RowDelay, "pause between batch flash rows")
}

// Validate checks that cfg can be used to build the application.
func (c Config) Validate() error {
	if c.ADB == "" {
		return fmt.Errorf("adb path cannot be empty")
	}
	if c.Fastboot == "" {
		return fmt.Errorf("fastboot path cannot be empty")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"detect interval", c.DetectInterval},
		{"drain interval", c.DrainInterval},
		{"probe timeout", c.ProbeTimeout},
		{"getvar timeout", c.GetvarTimeout},
		{"row delay", c.RowDelay},
		{"grace period", c.GracePeriod},
		{"pacing", c.Pacing},
	}

	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("invalid %s: must be positive, got %v", d.name, d.value)
		}
	}

	return nil
}

func toolPath(override, name string, lookPath func(string) (string, error)) string {
	if override != "" {
		return override
	}
	if path, err := lookPath(name); err == nil {
		return path
	}
	return name
}

func envString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func envDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// environmentConfig is defaultConfig over the real process environment.
func environmentConfig() Config {
	return defaultConfig(os.Getenv, exec.LookPath)
}

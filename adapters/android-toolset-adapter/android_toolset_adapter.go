package androidtoolsetadapter

import (
	"fmt"
	"path/filepath"
	"strings"

	commandport "github.com/chitacloud/droidflash/ports/command-port"
)

// Reboot targets understood by both tools.
const (
	RebootSystem     = ""
	RebootRecovery   = "recovery"
	RebootBootloader = "bootloader"
	RebootPoweroff   = "poweroff"
)

// Toolset builds invocations of adb and fastboot.
type Toolset struct {
	ADB      string
	Fastboot string

	// DryRun is copied into every invocation.
	DryRun bool
}

func (t *Toolset) adb(args ...string) commandport.Invocation {
	return commandport.NewInvocation(t.DryRun, t.ADB, args...)
}

func (t *Toolset) fastboot(args ...string) commandport.Invocation {
	return commandport.NewInvocation(t.DryRun, t.Fastboot, args...)
}

// Devices lists devices in normal mode.
func (t *Toolset) Devices() commandport.Invocation {
	return t.adb("devices", "-l")
}

// Shell runs a command on the device.
func (t *Toolset) Shell(args ...string) commandport.Invocation {
	return t.adb(append([]string{"shell"}, args...)...)
}

// Install installs or replaces an APK.
func (t *Toolset) Install(apk string) commandport.Invocation {
	return t.adb("install", "-r", apk)
}

// Push copies a local file to the device.
func (t *Toolset) Push(local, remote string) commandport.Invocation {
	return t.adb("push", local, remote)
}

// Pull copies a device file to the host.
func (t *Toolset) Pull(remote, local string) commandport.Invocation {
	return t.adb("pull", remote, local)
}

// Logcat streams the device log until the process is stopped.
func (t *Toolset) Logcat() commandport.Invocation {
	return t.adb("logcat")
}

// Getprop dumps every system property.
func (t *Toolset) Getprop() commandport.Invocation {
	return t.Shell("getprop")
}

// Reboot reboots a device in normal mode into target.
func (t *Toolset) Reboot(target string) (commandport.Invocation, error) {
	switch target {
	case RebootSystem:
		return t.adb("reboot"), nil
	case RebootRecovery, RebootBootloader:
		return t.adb("reboot", target), nil
	case RebootPoweroff:
		return t.Shell("reboot", "-p"), nil
	default:
		return commandport.Invocation{}, fmt.Errorf("unknown reboot target %q", target)
	}
}

// ListPackages lists installed packages.
func (t *Toolset) ListPackages() commandport.Invocation {
	return t.Shell("pm", "list", "packages")
}

// Uninstall removes a package for user 0, keeping its data.
func (t *Toolset) Uninstall(pkg string) commandport.Invocation {
	return t.Shell("pm", "uninstall", "-k", "--user", "0", pkg)
}

// Disable disables a package for user 0.
func (t *Toolset) Disable(pkg string) commandport.Invocation {
	return t.Shell("pm", "disable-user", "--user", "0", pkg)
}

// Enable re-enables a package.
func (t *Toolset) Enable(pkg string) commandport.Invocation {
	return t.Shell("pm", "enable", pkg)
}

// PackagePath prints the APK paths of a package.
func (t *Toolset) PackagePath(pkg string) commandport.Invocation {
	return t.Shell("pm", "path", pkg)
}

// FastbootDevices lists devices in bootloader mode.
func (t *Toolset) FastbootDevices() commandport.Invocation {
	return t.fastboot("devices")
}

// Getvar reads a bootloader variable, or all of them for "all".
func (t *Toolset) Getvar(name string) commandport.Invocation {
	return t.fastboot("getvar", name)
}

// Flash writes img to partition.
func (t *Toolset) Flash(partition, img string) commandport.Invocation {
	return t.fastboot("flash", partition, img)
}

// Erase erases partition.
func (t *Toolset) Erase(partition string) commandport.Invocation {
	return t.fastboot("erase", partition)
}

// FastbootReboot reboots a device in bootloader mode into target.
func (t *Toolset) FastbootReboot(target string) (commandport.Invocation, error) {
	switch target {
	case RebootSystem:
		return t.fastboot("reboot"), nil
	case RebootRecovery, RebootBootloader:
		return t.fastboot("reboot", target), nil
	case RebootPoweroff:
		return t.fastboot("oem", "poweroff"), nil
	default:
		return commandport.Invocation{}, fmt.Errorf("unknown reboot target %q", target)
	}
}

// Raw passes args to adb, or to fastboot if bootloader is true.
func (t *Toolset) Raw(bootloader bool, args ...string) commandport.Invocation {
	if bootloader {
		return t.fastboot(args...)
	}
	return t.adb(args...)
}

// guessOrder is checked in order; the first keyword in the filename wins.
var guessOrder = []string{"boot", "recovery", "system", "vbmeta", "vendor", "odm", "product"}

// GuessPartition guesses the partition for a single image from its name.
func GuessPartition(path string) (string, bool) {
	name := strings.ToLower(filepath.Base(path))

	for _, k := range guessOrder {
		if strings.Contains(name, k) {
			return k, true
		}
	}

	return "", false
}

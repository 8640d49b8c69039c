package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	androidtoolsetadapter "github.com/chitacloud/droidflash/adapters/android-toolset-adapter"
	defaultmonitoradapter "github.com/chitacloud/droidflash/adapters/default-monitor-adapter"
	interactiveconsoleadapter "github.com/chitacloud/droidflash/adapters/interactive-console-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
)

func newDevicesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices in both adb and fastboot contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				err := a.sequence(ctx, a.toolset.Devices(), a.toolset.FastbootDevices())

				snap := a.detector.Detect(ctx)
				a.publish("\nDetected: %s\n", defaultmonitoradapter.Status{Device: snap}.String())

				return err
			})
		},
	}
}

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report device context changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				<-ctx.Done()
				return nil
			}, func(a *app) {
				a.monitor.OnStatus = func(s defaultmonitoradapter.Status) {
					a.publish("[status] %s\n", s)
				}
			})
		},
	}
}

func newRunCmd(c *cli) *cobra.Command {
	var bootloader bool

	cmd := &cobra.Command{
		Use:   "run [--bootloader] -- <args...>",
		Short: "Run a raw adb (or fastboot) command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.exec(ctx, a.toolset.Raw(bootloader, args...))
			})
		},
	}

	cmd.Flags().BoolVarP(&bootloader, "bootloader", "b", false, "run fastboot instead of adb")
	return cmd
}

// parseRebootTarget maps operator spellings to a reboot target.
func parseRebootTarget(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reboot", "system":
		return androidtoolsetadapter.RebootSystem, nil
	case "recovery":
		return androidtoolsetadapter.RebootRecovery, nil
	case "bootloader", "fastboot":
		return androidtoolsetadapter.RebootBootloader, nil
	case "poweroff", "off":
		return androidtoolsetadapter.RebootPoweroff, nil
	default:
		return "", fmt.Errorf("unknown reboot target %q (use system, recovery, bootloader or poweroff)", s)
	}
}

func newRebootCmd(c *cli) *cobra.Command {
	var bootloader bool

	cmd := &cobra.Command{
		Use:   "reboot [system|recovery|bootloader|poweroff]",
		Short: "Reboot the device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}

			target, err := parseRebootTarget(target)
			if err != nil {
				return err
			}

			return c.do(cmd, func(ctx context.Context, a *app) error {
				var inv commandport.Invocation
				if bootloader {
					inv, err = a.toolset.FastbootReboot(target)
				} else {
					inv, err = a.toolset.Reboot(target)
				}
				if err != nil {
					return err
				}

				return a.exec(ctx, inv)
			})
		},
	}

	cmd.Flags().BoolVarP(&bootloader, "bootloader", "b", false, "reboot from the fastboot context")
	return cmd
}

func newShellCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <command...>",
		Short: "Run a shell command on the device",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.exec(ctx, a.toolset.Shell(args...))
			})
		},
	}
}

func newInstallCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "install <apk>",
		Short: "Install (or replace) an APK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.exec(ctx, a.toolset.Install(args[0]))
			})
		},
	}
}

func newPushCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "push <local> [remote]",
		Short: "Copy a file to the device",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := "/sdcard/"
			if len(args) == 2 {
				remote = args[1]
			}

			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.exec(ctx, a.toolset.Push(args[0], remote))
			})
		},
	}
}

func newPullCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <remote> [local]",
		Short: "Copy a file from the device",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local := "."
			if len(args) == 2 {
				local = args[1]
			}

			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.exec(ctx, a.toolset.Pull(args[0], local))
			})
		},
	}
}

func newLogcatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logcat",
		Short: "Stream the device log until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				err := a.exec(ctx, a.toolset.Logcat())
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
}

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show device properties from whichever context answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				getprop := a.toolset.Getprop()
				if res, err := a.prober.Probe(ctx, a.cfg.ProbeTimeout, getprop.Args...); err == nil {
					a.publish("[adb getprop]\n%s\n", res.Stdout)
				} else {
					a.publish("[adb getprop] failed or no adb device\n")
				}

				getvar := a.toolset.Getvar("all")
				if res, err := a.prober.Probe(ctx, a.cfg.GetvarTimeout, getvar.Args...); err == nil {
					a.publish("[fastboot getvar all]\n%s\n", res.Combined())
				} else {
					a.publish("[fastboot getvar all] failed or no fastboot device\n")
				}

				return nil
			})
		},
	}
}

func newConsoleCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Read adb and fastboot commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				factory := &interactiveconsoleadapter.ConsoleFactory{}

				console, err := factory.NewConsole(a.toolset, a.dispatcher, a.registry, a.queue)
				if err != nil {
					return err
				}
				console.Transcript = a.transcript
				console.Logger = a.logger

				a.publish("Type help for commands, quit to leave.\n")

				// A blocked read on the terminal cannot be interrupted, so
				// cancellation does not wait for the next line.
				done := make(chan error, 1)
				go func() {
					done <- console.Run(ctx, c.stdin)
				}()

				select {
				case err = <-done:
				case <-ctx.Done():
				}

				console.Wait()
				return err
			})
		},
	}
}

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs to build its app.
type cli struct {
	cfg    Config
	stdin  io.Reader
	stdout io.Writer
}

// do builds an app from the parsed flags and runs action under it. setup
// functions are applied before the monitor starts.
func (c *cli) do(cmd *cobra.Command, action func(ctx context.Context, a *app) error, setup ...func(a *app)) error {
	a, err := newApp(c.cfg, c.stdin, c.stdout)
	if err != nil {
		return err
	}
	defer a.close()

	for _, s := range setup {
		s(a)
	}

	return a.run(cmd.Context(), func(ctx context.Context) error {
		return action(ctx, a)
	})
}

// newRootCmd creates the droidflash command tree over cfg.
func newRootCmd(cfg Config, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{cfg: cfg, stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:   "droidflash",
		Short: "Drive adb and fastboot for common device maintenance tasks",
		Long: `droidflash runs adb and fastboot on your behalf, streaming their output,
watching which context the device is attached in and asking before anything
destructive happens. Every command honours --dry-run.`,
		SilenceUsage: true,
	}

	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	bindFlags(root, &c.cfg)

	root.AddCommand(
		newDevicesCmd(c),
		newWatchCmd(c),
		newRunCmd(c),
		newRebootCmd(c),
		newFlashCmd(c),
		newEraseCmd(c),
		newGetvarCmd(c),
		newUnlockCmd(c),
		newLockCmd(c),
		newSuggestCmd(c),
		newAutoflashCmd(c),
		newBatchCmd(c),
		newMapCmd(c),
		newPackagesCmd(c),
		newDebloatCmd(c),
		newInstallCmd(c),
		newPushCmd(c),
		newPullCmd(c),
		newShellCmd(c),
		newLogcatCmd(c),
		newInfoCmd(c),
		newConsoleCmd(c),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(environmentConfig(), os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

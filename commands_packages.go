package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	androidtoolsetadapter "github.com/chitacloud/droidflash/adapters/android-toolset-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
)

func (a *app) packageManager() *androidtoolsetadapter.PackageManager {
	return &androidtoolsetadapter.PackageManager{
		Toolset:   a.toolset,
		Prober:    a.prober,
		Runner:    a.runner,
		Output:    a.queue,
		Logger:    a.logger,
		Extractor: a.extractor,
	}
}

// eachPackage builds one invocation per package.
func eachPackage(pkgs []string, build func(string) commandport.Invocation) []commandport.Invocation {
	invs := make([]commandport.Invocation, 0, len(pkgs))
	for _, p := range pkgs {
		invs = append(invs, build(p))
	}
	return invs
}

func newPackagesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"pm"},
		Short:   "Manage installed packages",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [filter]",
			Short: "List installed packages, optionally filtered by substring",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					pkgs, err := a.packageManager().List(ctx)
					if err != nil {
						return err
					}

					if len(args) == 1 {
						pkgs = androidtoolsetadapter.FilterPackages(pkgs, args[0])
					}

					for _, p := range pkgs {
						a.publish("%s\n", p)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "uninstall <package...>",
			Short: "Uninstall packages for user 0, keeping their data",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					if !a.confirm(fmt.Sprintf("Uninstall %d package(s) for user 0?", len(args))) {
						return nil
					}
					return a.sequence(ctx, eachPackage(args, a.toolset.Uninstall)...)
				})
			},
		},
		&cobra.Command{
			Use:   "disable <package...>",
			Short: "Disable packages for user 0",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					return a.sequence(ctx, eachPackage(args, a.toolset.Disable)...)
				})
			},
		},
		&cobra.Command{
			Use:   "enable <package...>",
			Short: "Re-enable packages",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					return a.sequence(ctx, eachPackage(args, a.toolset.Enable)...)
				})
			},
		},
		&cobra.Command{
			Use:   "backup <folder> <package...>",
			Short: "Pull the APKs of packages into a folder",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					pm := a.packageManager()

					var err error
					for _, pkg := range args[1:] {
						if ctx.Err() != nil {
							return multierr.Append(err, ctx.Err())
						}
						err = multierr.Append(err, pm.Backup(ctx, pkg, args[0]))
					}
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "restore <apk|folder|zip>",
			Short: "Install APKs from a file, a folder or a zip",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					n, err := a.packageManager().Restore(ctx, args[0])
					if n > 0 {
						a.publish("Restore finished: %d install command(s) issued.\n", n)
					}
					return err
				})
			},
		},
	)

	return cmd
}

func newDebloatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "debloat",
		Short: "Uninstall the preset list of bloatware packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				if !a.prober.Available(a.cfg.ADB) {
					a.publish("adb not found in PATH.\n")
					return fmt.Errorf("%w: %s", commandport.ErrBinaryNotFound, a.cfg.ADB)
				}

				preset := androidtoolsetadapter.DebloatPreset
				if !a.confirm(fmt.Sprintf("Run debloat preset on %d packages?", len(preset))) {
					return nil
				}

				return a.sequence(ctx, eachPackage(preset, a.toolset.Uninstall)...)
			})
		},
	}
}

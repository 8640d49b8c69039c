package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	androidtoolsetadapter "github.com/chitacloud/droidflash/adapters/android-toolset-adapter"
	autoflashadapter "github.com/chitacloud/droidflash/adapters/auto-flash-adapter"
	batchflashadapter "github.com/chitacloud/droidflash/adapters/batch-flash-adapter"
	fallbackattemptadapter "github.com/chitacloud/droidflash/adapters/fallback-attempt-adapter"
	partitionmapperadapter "github.com/chitacloud/droidflash/adapters/partition-mapper-adapter"
)

var errCancelled = errors.New("cancelled by user")

func newFlashCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "flash <image> [partition]",
		Short: "Flash one image, guessing the partition from its name if omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img := args[0]

			return c.do(cmd, func(ctx context.Context, a *app) error {
				part, err := a.choosePartition(img, args[1:])
				if err != nil {
					return err
				}

				if !a.confirm(fmt.Sprintf("Flash %s to partition %s?", filepath.Base(img), part)) {
					a.publish("Flash cancelled.\n")
					return nil
				}

				return a.exec(ctx, a.toolset.Flash(part, img))
			})
		},
	}
}

// choosePartition returns the explicit partition if given. Otherwise the
// guess from the image name is offered to the operator, or used directly
// with --yes.
func (a *app) choosePartition(img string, explicit []string) (string, error) {
	if len(explicit) > 0 && explicit[0] != "" {
		return explicit[0], nil
	}

	guessed, ok := androidtoolsetadapter.GuessPartition(img)
	if ok && a.cfg.AssumeYes {
		return guessed, nil
	}

	def := "boot"
	label := "none"
	if ok {
		def = guessed
		label = guessed
	}

	part, answered := a.prompter.PromptText(fmt.Sprintf("Partition to flash (guessed: %s)", label), def)
	part = strings.TrimSpace(part)
	if !answered || part == "" {
		return "", errCancelled
	}

	return part, nil
}

func newEraseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "erase <partition>",
		Short: "Erase a partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			part := args[0]

			return c.do(cmd, func(ctx context.Context, a *app) error {
				if !a.confirm(fmt.Sprintf("Erase partition %s? This is destructive.", part)) {
					a.publish("Erase cancelled.\n")
					return nil
				}

				return a.exec(ctx, a.toolset.Erase(part))
			})
		},
	}
}

func newGetvarCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "getvar [name]",
		Short: "Query a bootloader variable (default all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "all"
			if len(args) == 1 {
				name = args[0]
			}

			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.exec(ctx, a.toolset.Getvar(name))
			})
		},
	}
}

func (a *app) protocols() *fallbackattemptadapter.Factory {
	return &fallbackattemptadapter.Factory{
		Fastboot:      a.cfg.Fastboot,
		RunnerFactory: a.runners,
		Prober:        a.prober,
		Prompter:      a.prompter,
		Output:        a.queue,
		Logger:        a.logger,
		ProbeTimeout:  a.cfg.ProbeTimeout,
		GetvarTimeout: a.cfg.GetvarTimeout,
	}
}

// attempt runs p after the operator accepts summary and turns the outcome
// into a command result.
func (a *app) attempt(ctx context.Context, p *fallbackattemptadapter.Protocol, summary, logFile string) error {
	summary = fmt.Sprintf("%s\nDry-run: %v\nForce: %v\n\nContinue?", summary, a.cfg.DryRun, a.cfg.Force)
	if !a.prompter.Confirm(summary) {
		a.publish("%s cancelled.\n", p.Title)
		return nil
	}

	out := p.Attempt(ctx, fallbackattemptadapter.Options{
		DryRun:  a.cfg.DryRun,
		Force:   a.cfg.Force,
		LogFile: logFile,
	})

	a.logger.Info("bootloader attempt finished", "action", p.Action, "state", out.State.String(), "attempts", len(out.Attempts))

	var err error
	switch out.State {
	case fallbackattemptadapter.Succeeded, fallbackattemptadapter.UserCancelled:
	case fallbackattemptadapter.ExhaustedFailed:
		if !a.cfg.DryRun {
			err = fmt.Errorf("%s failed: no candidate command succeeded", p.Action)
		}
	default:
		err = fmt.Errorf("%s failed: %s", p.Action, out.State)
	}

	if out.LogErr != nil {
		err = multierr.Append(err, fmt.Errorf("failed to write session log: %w", out.LogErr))
	}

	return err
}

func newUnlockCmd(c *cli) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Try the known bootloader unlock commands in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.attempt(ctx, a.protocols().Unlock(),
					"This will try common fastboot commands to unlock the bootloader.\n"+
						"WARNING: this usually ERASES DATA and may void warranty.\n",
					logFile)
			})
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append a copy of the session to this file")
	return cmd
}

func newLockCmd(c *cli) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Try the known bootloader lock commands in turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				return a.attempt(ctx, a.protocols().Lock(),
					"Locking the bootloader may ERASE DATA and make the device secure again.\n",
					logFile)
			})
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append a copy of the session to this file")
	return cmd
}

func newSuggestCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest an unlock approach for the attached device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				s := &fallbackattemptadapter.Suggester{
					ADB:      a.cfg.ADB,
					Fastboot: a.cfg.Fastboot,
					Prober:   a.prober,
					Timeout:  a.cfg.GetvarTimeout,
				}

				a.publish("%s\n", s.Suggest(ctx))
				return nil
			})
		},
	}
}

func newAutoflashCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "autoflash <firmware.zip>",
		Short: "Extract a firmware package and flash every image it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				w := &autoflashadapter.Workflow{
					Fastboot:     a.cfg.Fastboot,
					Extractor:    a.extractor,
					Runner:       a.runner,
					Prober:       a.prober,
					Prompter:     a.prompter,
					Output:       a.queue,
					Logger:       a.logger,
					ProbeTimeout: a.cfg.ProbeTimeout,
				}

				ops, err := w.Run(ctx, args[0], a.cfg.DryRun)
				if errors.Is(err, autoflashadapter.ErrCancelled) {
					return nil
				}
				if err != nil {
					return err
				}

				failed := 0
				for _, op := range ops {
					if op.Status.Failed() {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d flashes failed", failed, len(ops))
				}

				return nil
			})
		},
	}
}

func newBatchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Flash a list of partition/image pairs",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "run <list-file>",
			Short: "Flash every row of a batch list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					return a.runBatch(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "plan <list-file>",
			Short: "Show the rows of a batch list without flashing",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.do(cmd, func(ctx context.Context, a *app) error {
					rows, err := batchflashadapter.LoadListFile(args[0])
					for i, r := range rows {
						state := "ok"
						if _, statErr := os.Stat(r.Source); statErr != nil {
							state = "missing"
						}
						a.publish("%d. %s <- %s (%s)\n", i+1, r.Partition, r.Source, state)
					}
					return err
				})
			},
		},
		newBatchMapCmd(c),
	)

	return cmd
}

// defaultExtractDir is where batch map unpacks a zip: next to the list
// file, named after the archive.
func defaultExtractDir(archive, listFile string) string {
	base := filepath.Base(archive)
	return filepath.Join(filepath.Dir(listFile), strings.TrimSuffix(base, filepath.Ext(base))+"_images")
}

func newBatchMapCmd(c *cli) *cobra.Command {
	var extractDir string

	cmd := &cobra.Command{
		Use:   "map <folder|zip> <list-file>",
		Short: "Write a batch list for the images found in a folder or zip",
		Long: `Write a batch list for the images found in a folder or zip.

A zip is extracted next to the list file (or into --extract-dir) and kept
there, so the rows stay valid for a later batch run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				dest := ""
				if isZip(args[0]) {
					dest = extractDir
					if dest == "" {
						dest = defaultExtractDir(args[0], args[1])
					}
				}

				mappings, err := a.mapFolder(args[0], dest)
				if err != nil {
					return err
				}

				rows := make([]*batchflashadapter.Row, 0, len(mappings))
				for _, m := range mappings {
					rows = append(rows, batchflashadapter.NewRow(m.Partition, m.Source))
				}

				if err := batchflashadapter.SaveListFile(args[1], rows); err != nil {
					return err
				}

				a.publish("Saved %d row(s) to %s\n", len(rows), args[1])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&extractDir, "extract-dir", "", "where to keep the images of a zip (default: next to the list file)")
	return cmd
}

func (a *app) runBatch(ctx context.Context, listFile string) error {
	rows, err := batchflashadapter.LoadListFile(listFile)
	if err != nil {
		if len(rows) == 0 {
			return err
		}
		a.publish("[MultiFlash] Ignoring unreadable lines: %v\n", err)
	}

	if len(rows) == 0 {
		a.publish("No rows selected for flashing.\n")
		return nil
	}

	if !a.prompter.Confirm(fmt.Sprintf("Will execute %d flash operation(s) in sequence.\nContinue?", len(rows))) {
		return nil
	}

	w := &batchflashadapter.Workflow{
		Fastboot:     a.cfg.Fastboot,
		Runner:       a.runner,
		Prober:       a.prober,
		Prompter:     a.prompter,
		Output:       a.queue,
		Logger:       a.logger,
		Delay:        a.cfg.RowDelay,
		ProbeTimeout: a.cfg.ProbeTimeout,
	}

	report, err := w.Run(ctx, rows, a.cfg.DryRun)
	if err != nil {
		return err
	}

	a.publish("[MultiFlash] %d selected, %d succeeded, %d failed, %d skipped\n",
		report.Selected, report.Succeeded, report.Failed, report.Skipped)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d rows failed", report.Failed, report.Selected)
	}
	return nil
}

func isZip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zip")
}

// mapFolder maps the images under dir, or inside dir if it is a zip file.
// A zip is extracted into extractDir, or into a temporary directory removed
// on return when extractDir is empty.
func (a *app) mapFolder(dir, extractDir string) ([]partitionmapperadapter.Mapping, error) {
	root := dir

	if isZip(dir) {
		if extractDir == "" {
			tmp, err := os.MkdirTemp("", "droidflash_map_")
			if err != nil {
				return nil, err
			}
			defer os.RemoveAll(tmp)
			extractDir = tmp
		} else {
			abs, err := filepath.Abs(extractDir)
			if err != nil {
				return nil, err
			}
			extractDir = abs

			if err := os.MkdirAll(extractDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", extractDir, err)
			}
			a.publish("Extracting %s to %s\n", dir, extractDir)
		}

		if _, err := a.extractor.Extract(dir, extractDir); err != nil {
			return nil, fmt.Errorf("failed to extract archive: %w", err)
		}
		root = extractDir
	}

	images, err := autoflashadapter.FindImages(root)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, autoflashadapter.ErrNoImages
	}

	return partitionmapperadapter.MapImages(images), nil
}

func newMapCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "map <folder|firmware.zip>",
		Short: "Show which partition each image would be flashed to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd, func(ctx context.Context, a *app) error {
				mappings, err := a.mapFolder(args[0], "")
				if err != nil {
					return err
				}

				seen := make(map[string]int)
				for _, m := range mappings {
					a.publish(" - %s -> %s\n", m.Partition, m.Source)
					seen[m.Source]++
				}

				for _, m := range mappings {
					if seen[m.Source] > 1 {
						a.publish("Note: %s matches %d partitions.\n", filepath.Base(m.Source), seen[m.Source])
						seen[m.Source] = 0
					}
				}

				return nil
			})
		},
	}
}

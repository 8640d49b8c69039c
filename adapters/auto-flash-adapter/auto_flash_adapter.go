package autoflashadapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	partitionmapperadapter "github.com/chitacloud/droidflash/adapters/partition-mapper-adapter"
	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	archiveport "github.com/chitacloud/droidflash/ports/archive-port"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	promptport "github.com/chitacloud/droidflash/ports/prompt-port"
)

var (
	ErrArchiveNotFound = errors.New("archive not found")
	ErrNoImages        = errors.New("no .img files in archive")
	ErrCancelled       = errors.New("cancelled by user")
)

// DefaultProbeTimeout bounds the device listing done before flashing.
var DefaultProbeTimeout = 3 * time.Second

// Operation is one planned flash and its result.
type Operation struct {
	partitionmapperadapter.Mapping
	Status commandport.ExitStatus
}

// Workflow flashes every image found in a firmware archive.
type Workflow struct {
	Fastboot  string
	Extractor archiveport.Extractor

	// Mapper defaults to the standard hint table.
	Mapper *partitionmapperadapter.Mapper

	Runner   commandport.Runner
	Prober   commandport.Prober
	Prompter promptport.Prompter
	Output   outputport.Publisher
	Logger   loggerport.Logger

	// TempDir is the parent of the extraction directory. If empty, the
	// system temp directory is used.
	TempDir string

	ProbeTimeout time.Duration
}

// Run extracts archivePath, plans and, after confirmation, executes one
// flash per mapping. A non-zero exit does not stop the remaining flashes.
//
// The extraction directory is always removed before Run returns.
func (w *Workflow) Run(ctx context.Context, archivePath string, dryRun bool) ([]Operation, error) {
	logger := zaploggeradapter.OrNop(w.Logger).With("archive", archivePath)

	w.Output.Publish(fmt.Sprintf("\n=== START AUTO FLASH ZIP: %s ===\n", archivePath))

	if !w.Prober.Available(w.Fastboot) {
		w.Output.Publish("fastboot not found in PATH. Aborting.\n")
		return nil, fmt.Errorf("%w: %s", commandport.ErrBinaryNotFound, w.Fastboot)
	}

	if info, err := os.Stat(archivePath); err != nil || info.IsDir() {
		w.Output.Publish("ZIP file not found.\n")
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	if !dryRun && !w.deviceAttached(ctx) {
		w.Output.Publish("No fastboot device detected. Put device in bootloader/fastboot mode.\n")
		return nil, commandport.ErrNoDevice
	}

	tmp, err := os.MkdirTemp(w.TempDir, "droidflash_flash_")
	if err != nil {
		w.Output.Publish(fmt.Sprintf("Failed to create temp dir: %v\n", err))
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger.Warn("failed to remove extraction directory", "dir", tmp, "error", err)
		}
	}()

	if _, err := w.Extractor.Extract(archivePath, tmp); err != nil {
		w.Output.Publish(fmt.Sprintf("Failed to extract zip: %v\n", err))
		return nil, fmt.Errorf("failed to extract archive: %w", err)
	}

	images, err := FindImages(tmp)
	if err != nil {
		w.Output.Publish(fmt.Sprintf("Failed to scan extracted files: %v\n", err))
		return nil, err
	}
	if len(images) == 0 {
		w.Output.Publish("No .img files found inside ZIP. Is this the correct firmware package?\n")
		return nil, ErrNoImages
	}

	mapper := w.Mapper
	if mapper == nil {
		mapper = &partitionmapperadapter.Mapper{}
	}

	ops := plan(mapper.MapImages(images))

	w.Output.Publish("Planned flash operations:\n")
	for _, op := range ops {
		w.Output.Publish(fmt.Sprintf(" - %s -> %s\n", op.Partition, op.Source))
	}

	if !dryRun && !w.Prompter.Confirm(fmt.Sprintf("Will flash %d image(s) to device. Continue?", len(ops))) {
		w.Output.Publish("User cancelled auto-flash.\n")
		return ops, ErrCancelled
	}

	logger.Info("auto flash started", "operations", len(ops), "dry_run", dryRun)

	for i := range ops {
		if err := ctx.Err(); err != nil {
			w.Output.Publish("Auto-flash interrupted.\n")
			return ops, err
		}

		inv := commandport.NewInvocation(dryRun, w.Fastboot, "flash", ops[i].Partition, ops[i].Source)
		w.Output.Publish(fmt.Sprintf("Executing: %s\n", inv.Display()))

		ops[i].Status = w.Runner.Run(ctx, inv)
	}

	w.Output.Publish("=== END AUTO FLASH ZIP ===\n")
	logger.Info("auto flash finished", "operations", len(ops))

	return ops, nil
}

func (w *Workflow) deviceAttached(ctx context.Context) bool {
	timeout := w.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	res, err := w.Prober.Probe(ctx, timeout, w.Fastboot, "devices")
	return err == nil && strings.TrimSpace(res.Stdout) != ""
}

func plan(mappings []partitionmapperadapter.Mapping) []Operation {
	ops := make([]Operation, len(mappings))
	for i, m := range mappings {
		ops[i] = Operation{Mapping: m, Status: commandport.ExitNotStarted}
	}
	return ops
}

// FindImages returns every ".img" file under dir, in lexical walk order.
func FindImages(dir string) ([]string, error) {
	var images []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".img") {
			images = append(images, path)
		}
		return nil
	})

	return images, err
}

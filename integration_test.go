package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	batchflashadapter "github.com/chitacloud/droidflash/adapters/batch-flash-adapter"
)

// syncBuffer is a bytes.Buffer safe for the monitor and prompter writing
// concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const fakeADB = `#!/bin/sh
case "$1" in
devices)
	printf 'List of devices attached\nSERIAL123\tdevice product:sunfish model:Pixel_4a\n'
	;;
shell)
	shift
	if [ "$1" = "fail" ]; then
		echo "failing on purpose" >&2
		exit 3
	fi
	echo "shell: $*"
	;;
*)
	echo "adb: $*"
	;;
esac
`

const fakeFastboot = `#!/bin/sh
case "$*" in
devices)
	printf 'FB123\tfastboot\n'
	;;
"getvar all")
	echo "(bootloader) product: sunfish" >&2
	echo "(bootloader) manufacturer: Google" >&2
	;;
"flashing unlock")
	echo "FAILED (remote: unknown command)" >&2
	exit 1
	;;
"oem unlock")
	echo "OKAY"
	;;
*)
	echo "fastboot: $*"
	;;
esac
`

// writeScript creates an executable shell script in dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// execute runs the CLI against fake tools and returns the transcript.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("Skipping: /bin/sh not available")
	}

	dir := t.TempDir()

	cfg := defaultConfig(fakeEnv(nil), notFound)
	cfg.ADB = writeScript(t, dir, "adb", fakeADB)
	cfg.Fastboot = writeScript(t, dir, "fastboot", fakeFastboot)
	cfg.LogLevel = "error"
	cfg.RowDelay = time.Millisecond
	cfg.Pacing = time.Millisecond
	cfg.DrainInterval = 10 * time.Millisecond

	stdout := &syncBuffer{}
	stderr := &syncBuffer{}

	root := newRootCmd(cfg, strings.NewReader(stdin), stdout, stderr)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := root.ExecuteContext(ctx)
	return stdout.String(), err
}

func TestCLI_Run_StreamsOutput(t *testing.T) {
	out, err := execute(t, "", "run", "--", "shell", "echo", "hi")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{"shell echo hi\n", "shell: echo hi\n", "[Process exited with code 0]"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestCLI_Shell_NonZeroExit(t *testing.T) {
	out, err := execute(t, "", "shell", "fail")
	if err == nil {
		t.Fatal("Expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "exited with code 3") {
		t.Errorf("Expected exit code in error, got: %v", err)
	}
	if !strings.Contains(out, "failing on purpose") {
		t.Errorf("Expected stderr of the tool in transcript, got:\n%s", out)
	}
}

func TestCLI_Erase_DryRun(t *testing.T) {
	out, err := execute(t, "", "--dry-run", "erase", "userdata")
	if err != nil {
		t.Fatalf("Erase failed: %v", err)
	}

	if !strings.Contains(out, "erase userdata\n[DRY-RUN] Command not executed.\n") {
		t.Errorf("Expected dry-run annotation, got:\n%s", out)
	}
}

func TestCLI_Erase_Declined(t *testing.T) {
	out, err := execute(t, "n\n", "erase", "userdata")
	if err != nil {
		t.Fatalf("Erase failed: %v", err)
	}

	if !strings.Contains(out, "Erase partition userdata? This is destructive. [y/N]: ") {
		t.Errorf("Expected confirmation prompt, got:\n%s", out)
	}
	if !strings.Contains(out, "Erase cancelled.\n") {
		t.Errorf("Expected cancellation notice, got:\n%s", out)
	}
	if strings.Contains(out, "[Process exited") {
		t.Errorf("Expected no process to run, got:\n%s", out)
	}
}

func TestCLI_Devices(t *testing.T) {
	out, err := execute(t, "", "devices")
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}

	if !strings.Contains(out, "FB123\tfastboot") {
		t.Errorf("Expected fastboot listing, got:\n%s", out)
	}
	if !strings.Contains(out, "Detected: adb: SERIAL123") {
		t.Errorf("Expected adb context to win, got:\n%s", out)
	}
}

func TestCLI_Unlock_FallsThroughToWorkingCandidate(t *testing.T) {
	out, err := execute(t, "", "--yes", "--force", "unlock")
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	expected := []string{
		"=== START UNIVERSAL UNLOCK ATTEMPT ===",
		"(bootloader) manufacturer: Google",
		"Trying: ",
		"No success indication - trying next method.\n",
		"OKAY\n",
		"Command returned code 0 - likely success.\n",
		"=== END UNIVERSAL UNLOCK ATTEMPT ===",
	}

	last := -1
	for _, want := range expected {
		idx := strings.Index(out, want)
		if idx < 0 {
			t.Fatalf("Expected %q in output, got:\n%s", want, out)
		}
		if idx < last {
			t.Errorf("Expected %q to appear after previous markers", want)
		}
		last = idx
	}

	if strings.Contains(out, "oem unlock-go") {
		t.Errorf("Expected no candidates after the winner, got:\n%s", out)
	}
}

func TestCLI_Unlock_SessionLog(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "unlock.log")

	if _, err := execute(t, "", "--yes", "--force", "unlock", "--log-file", logFile); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read session log: %v", err)
	}

	log := string(data)
	for _, want := range []string{"=== LOG START: ", "(bootloader) product: sunfish", "OKAY", "=== LOG END ==="} {
		if !strings.Contains(log, want) {
			t.Errorf("Expected %q in session log, got:\n%s", want, log)
		}
	}
}

func TestCLI_Batch_DryRun(t *testing.T) {
	dir := t.TempDir()

	boot := filepath.Join(dir, "boot.img")
	if err := os.WriteFile(boot, []byte("boot"), 0o644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}

	list := filepath.Join(dir, "list.txt")
	content := "boot|" + boot + "\nvendor|" + filepath.Join(dir, "missing.img") + "\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write list: %v", err)
	}

	out, err := execute(t, "", "--yes", "--dry-run", "batch", "run", list)
	if err != nil {
		t.Fatalf("Batch failed: %v", err)
	}

	for _, want := range []string{
		"[MultiFlash] Executing row 1/2: ",
		"[MultiFlash] Row 1 simulated (dry-run).\n",
		"[MultiFlash] Skipped row 2 (file not found).\n",
		"[MultiFlash] All selected rows processed.\n",
		"[MultiFlash] 2 selected, 0 succeeded, 0 failed, 2 skipped\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestCLI_BatchMap_WritesList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"boot.img", "system.img"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("Failed to write image: %v", err)
		}
	}

	list := filepath.Join(t.TempDir(), "list.txt")
	out, err := execute(t, "", "batch", "map", dir, list)
	if err != nil {
		t.Fatalf("Batch map failed: %v", err)
	}
	if !strings.Contains(out, "Saved 2 row(s) to "+list) {
		t.Errorf("Expected save notice, got:\n%s", out)
	}

	data, err := os.ReadFile(list)
	if err != nil {
		t.Fatalf("Failed to read list: %v", err)
	}

	expected := "boot|" + filepath.Join(dir, "boot.img") + "\nsystem|" + filepath.Join(dir, "system.img") + "\n"
	if string(data) != expected {
		t.Errorf("Expected list %q, got %q", expected, string(data))
	}
}

// writeZip creates a zip in a temporary directory holding names, each with
// its own name as content.
func writeZip(t *testing.T, names ...string) string {
	t.Helper()

	archive := filepath.Join(t.TempDir(), "firmware.zip")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		if _, err := w.Write([]byte(name)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
	return archive
}

// assertSourcesExist loads a batch list and checks every row points at a
// file on disk.
func assertSourcesExist(t *testing.T, list string, wantRows int) []string {
	t.Helper()

	rows, err := batchflashadapter.LoadListFile(list)
	if err != nil {
		t.Fatalf("Failed to load list: %v", err)
	}
	if len(rows) != wantRows {
		t.Fatalf("Expected %d rows, got %d", wantRows, len(rows))
	}

	var sources []string
	for _, r := range rows {
		if _, err := os.Stat(r.Source); err != nil {
			t.Errorf("Expected source of %s to exist, got: %v", r.Partition, err)
		}
		sources = append(sources, r.Source)
	}
	return sources
}

func TestCLI_BatchMap_ZipKeepsImages(t *testing.T) {
	archive := writeZip(t, "images/boot.img", "images/vbmeta.img", "README.txt")
	listDir := t.TempDir()
	list := filepath.Join(listDir, "list.txt")

	out, err := execute(t, "", "batch", "map", archive, list)
	if err != nil {
		t.Fatalf("Batch map failed: %v", err)
	}

	extracted := filepath.Join(listDir, "firmware_images")
	if !strings.Contains(out, "Extracting "+archive+" to "+extracted) {
		t.Errorf("Expected extraction notice, got:\n%s", out)
	}

	for _, src := range assertSourcesExist(t, list, 2) {
		if !strings.HasPrefix(src, extracted+string(filepath.Separator)) {
			t.Errorf("Expected %s to be under %s", src, extracted)
		}
	}

	if _, err := execute(t, "", "--yes", "--dry-run", "batch", "run", list); err != nil {
		t.Errorf("Expected saved list to run, got: %v", err)
	}
}

func TestCLI_BatchMap_ZipExtractDir(t *testing.T) {
	archive := writeZip(t, "boot.img")
	list := filepath.Join(t.TempDir(), "list.txt")
	dest := filepath.Join(t.TempDir(), "unpacked")

	if _, err := execute(t, "", "batch", "map", "--extract-dir", dest, archive, list); err != nil {
		t.Fatalf("Batch map failed: %v", err)
	}

	sources := assertSourcesExist(t, list, 1)
	if expected := filepath.Join(dest, "boot.img"); sources[0] != expected {
		t.Errorf("Expected source %q, got %q", expected, sources[0])
	}
}

func TestCLI_Autoflash_DryRun(t *testing.T) {
	archive := writeZip(t, "images/boot.img", "images/vbmeta.img", "README.txt")

	out, err := execute(t, "", "--dry-run", "autoflash", archive)
	if err != nil {
		t.Fatalf("Autoflash failed: %v", err)
	}

	for _, want := range []string{
		"Planned flash operations:\n",
		" - boot -> ",
		" - vbmeta -> ",
		"[DRY-RUN] Command not executed.\n",
		"=== END AUTO FLASH ZIP ===\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}

	if strings.Contains(out, "README") {
		t.Errorf("Expected non-image files to be ignored, got:\n%s", out)
	}
}

func TestCLI_Console(t *testing.T) {
	out, err := execute(t, "jobs\nadb shell echo from-console\nbogus\nquit\n", "console")
	if err != nil {
		t.Fatalf("Console failed: %v", err)
	}

	for _, want := range []string{
		"Type help for commands, quit to leave.\n",
		"No jobs running.\n",
		"shell: echo from-console\n",
		`Error: unknown command "bogus"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

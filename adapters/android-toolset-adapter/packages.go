package androidtoolsetadapter

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	archiveport "github.com/chitacloud/droidflash/ports/archive-port"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
)

// DebloatPreset lists the packages removed by the debloat preset.
var DebloatPreset = []string{
	"com.miui.analytics",
	"com.xiaomi.account",
}

// DefaultPackageTimeout bounds package manager queries.
var DefaultPackageTimeout = 10 * time.Second

// ParsePackages extracts names from "pm list packages" or "pm path" output.
func ParsePackages(out string) []string {
	var pkgs []string

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if i := strings.LastIndex(line, "package:"); i >= 0 {
			line = strings.TrimSpace(line[i+len("package:"):])
		}
		if line != "" {
			pkgs = append(pkgs, line)
		}
	}

	return pkgs
}

// FilterPackages returns the packages containing query, case-insensitively.
func FilterPackages(pkgs []string, query string) []string {
	query = strings.ToLower(query)

	var out []string
	for _, p := range pkgs {
		if strings.Contains(strings.ToLower(p), query) {
			out = append(out, p)
		}
	}

	return out
}

// PackageManager queries and backs up installed packages.
type PackageManager struct {
	Toolset *Toolset
	Prober  commandport.Prober
	Runner  commandport.Runner
	Output  outputport.Publisher
	Logger  loggerport.Logger

	// Extractor unpacks APK bundles for Restore. It may be nil if
	// archives are never restored.
	Extractor archiveport.Extractor

	Timeout time.Duration
}

func (m *PackageManager) timeout() time.Duration {
	if m.Timeout <= 0 {
		return DefaultPackageTimeout
	}
	return m.Timeout
}

// List returns the installed packages.
func (m *PackageManager) List(ctx context.Context) ([]string, error) {
	inv := m.Toolset.ListPackages()

	res, err := m.Prober.Probe(ctx, m.timeout(), inv.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	return ParsePackages(res.Stdout), nil
}

// Backup pulls every APK of pkg into folder as "<pkg>__<apk name>".
func (m *PackageManager) Backup(ctx context.Context, pkg, folder string) error {
	inv := m.Toolset.PackagePath(pkg)

	res, err := m.Prober.Probe(ctx, m.timeout(), inv.Args...)
	if err != nil {
		m.Output.Publish(fmt.Sprintf("Error getting pm path for %s: %v\n", pkg, err))
		return err
	}

	paths := ParsePackages(res.Stdout)
	if len(paths) == 0 {
		m.Output.Publish(fmt.Sprintf("Package %s path not found or no permission.\n", pkg))
		return fmt.Errorf("no apk path for %s", pkg)
	}

	failed := 0
	for _, p := range paths {
		dest := filepath.Join(folder, fmt.Sprintf("%s__%s", pkg, path.Base(p)))
		if status := m.Runner.Run(ctx, m.Toolset.Pull(p, dest)); unsuccessful(status) {
			failed++
		}
	}

	m.Output.Publish(fmt.Sprintf("Backup finished for %s\n", pkg))
	zaploggeradapter.OrNop(m.Logger).Info("package backed up", "package", pkg, "apks", len(paths), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d pulls failed for %s", failed, len(paths), pkg)
	}
	return nil
}

// Restore installs an APK, every APK in a folder, or every APK in a zip.
// It returns the number of install commands issued.
func (m *PackageManager) Restore(ctx context.Context, source string) (int, error) {
	info, err := os.Stat(source)
	if err != nil {
		return 0, err
	}

	var apks []string

	switch {
	case info.IsDir():
		apks, err = findAPKs(source)

	case strings.HasSuffix(strings.ToLower(source), ".apk"):
		apks = []string{source}

	case strings.HasSuffix(strings.ToLower(source), ".zip"):
		if m.Extractor == nil {
			return 0, fmt.Errorf("no extractor configured for %s", source)
		}

		tmp, mkErr := os.MkdirTemp("", "droidflash_restore_")
		if mkErr != nil {
			return 0, mkErr
		}
		defer os.RemoveAll(tmp)

		if _, err = m.Extractor.Extract(source, tmp); err == nil {
			apks, err = findAPKs(tmp)
		}

	default:
		return 0, fmt.Errorf("unsupported restore source %s: choose an APK, a ZIP or a folder", source)
	}

	if err != nil {
		return 0, err
	}

	failed := 0
	for _, apk := range apks {
		if status := m.Runner.Run(ctx, m.Toolset.Install(apk)); unsuccessful(status) {
			failed++
		}
	}

	zaploggeradapter.OrNop(m.Logger).Info("packages restored", "source", source, "apks", len(apks), "failed", failed)

	if failed > 0 {
		return len(apks), fmt.Errorf("%d of %d installs failed from %s", failed, len(apks), source)
	}
	return len(apks), nil
}

// unsuccessful reports whether status means the command did not do its
// job. A dry-run is not a failure.
func unsuccessful(status commandport.ExitStatus) bool {
	return status.Failed() || status == commandport.ExitNotStarted
}

func findAPKs(dir string) ([]string, error) {
	var apks []string

	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".apk") {
			apks = append(apks, p)
		}
		return nil
	})

	sort.Strings(apks)
	return apks, err
}

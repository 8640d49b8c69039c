package ziparchiveadapter

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	archiveport "github.com/chitacloud/droidflash/ports/archive-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
)

var _ archiveport.Extractor = (*ZipExtractor)(nil)

var (
	ErrPathTraversal = errors.New("archive entry escapes destination")
	ErrTooManyFiles  = errors.New("too many files in archive")
	ErrTooLarge      = errors.New("archive exceeds extraction size limit")
)

const (
	// DefaultMaxFiles is the maximum number of entries in a firmware package.
	DefaultMaxFiles = 10000

	// DefaultMaxTotalSize is the maximum total size of all extracted files
	// (16GB). Super and system images are large.
	DefaultMaxTotalSize = 16 << 30
)

// ZipExtractor extracts zip archives.
type ZipExtractor struct {
	MaxFiles     int
	MaxTotalSize int64
	Logger       loggerport.Logger
}

// Extract unpacks archivePath into destDir. Nothing is written if the
// archive fails the entry count check. On a later failure the files written
// so far are left for the caller to remove along with destDir.
func (z *ZipExtractor) Extract(archivePath, destDir string) (files []string, err error) {
	maxFiles := z.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	maxTotal := z.MaxTotalSize
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotalSize
	}

	r, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		if r != nil {
			r.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrPathTraversal, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()

	if len(r.File) > maxFiles {
		return nil, fmt.Errorf("%w (%d, max %d)", ErrTooManyFiles, len(r.File), maxFiles)
	}

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}

	var total int64

	for _, f := range r.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return files, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
			continue
		}

		if !f.Mode().IsRegular() {
			zaploggeradapter.OrNop(z.Logger).Debug("skipping non-regular archive entry", "entry", f.Name)
			continue
		}

		remaining := maxTotal - total
		if int64(f.UncompressedSize64) > remaining {
			return files, fmt.Errorf("%w: %s", ErrTooLarge, f.Name)
		}

		n, err := extractFile(f, target, remaining)
		if err != nil {
			return files, err
		}

		total += n
		files = append(files, target)
	}

	zaploggeradapter.OrNop(z.Logger).Debug("archive extracted", "archive", archivePath, "files", len(files), "bytes", total)
	return files, nil
}

// entryPath resolves name inside root and rejects entries that would land
// outside it.
func entryPath(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, name)
	}

	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, name)
	}

	return target, nil
}

// extractFile copies f to target, refusing to write more than limit bytes.
func extractFile(f *zip.File, target string, limit int64) (n int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer func() {
		err = multierr.Append(err, rc.Close())
	}()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	n, err = io.Copy(out, io.LimitReader(rc, limit+1))
	if err != nil {
		return n, fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	if n > limit {
		return n, fmt.Errorf("%w: %s", ErrTooLarge, f.Name)
	}

	return n, nil
}

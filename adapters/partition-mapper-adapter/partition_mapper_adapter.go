package partitionmapperadapter

import (
	"path/filepath"
	"strings"
)

// Hint associates a partition with filename substrings that identify its
// image.
type Hint struct {
	Partition string
	Patterns  []string
}

// DefaultHints is the standard hint table. Order matters: it is the order of
// the planned operations.
var DefaultHints = []Hint{
	{"boot", []string{"boot.img", "boot.img.gz"}},
	{"recovery", []string{"recovery.img"}},
	{"system", []string{"system.img", "system_new.img", "system.raw.img", "system_ext4.img"}},
	{"vbmeta", []string{"vbmeta.img"}},
	{"vendor", []string{"vendor.img"}},
	{"odm", []string{"odm.img"}},
	{"product", []string{"product.img"}},
	{"vendor_boot", []string{"vendor_boot.img"}},
	{"dtbo", []string{"dtbo.img"}},
}

// Mapping is one planned flash operation.
type Mapping struct {
	Partition string
	Source    string
}

// Mapper maps extracted image files to partitions.
type Mapper struct {
	// Hints defaults to DefaultHints.
	Hints []Hint
}

// MapImages maps paths using DefaultHints.
func MapImages(paths []string) []Mapping {
	return (&Mapper{}).MapImages(paths)
}

// MapImages returns the planned operations for paths.
//
// Table entries come first, in table order then hint order then path order.
// A file matching several hints is mapped several times. Every ".img" file
// that matched no hint then gets an entry named after its basename without
// the extension.
func (m *Mapper) MapImages(paths []string) []Mapping {
	hints := m.Hints
	if hints == nil {
		hints = DefaultHints
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = strings.ToLower(filepath.Base(p))
	}

	var mapped []Mapping
	matched := make([]bool, len(paths))

	for _, h := range hints {
		for _, pattern := range h.Patterns {
			for i, name := range names {
				if strings.Contains(name, pattern) {
					mapped = append(mapped, Mapping{Partition: h.Partition, Source: paths[i]})
					matched[i] = true
				}
			}
		}
	}

	for i, name := range names {
		if matched[i] {
			continue
		}
		if part, ok := GuessFromFilename(name); ok {
			mapped = append(mapped, Mapping{Partition: part, Source: paths[i]})
		}
	}

	return mapped
}

// GuessFromFilename returns the basename of an ".img" file without its
// extension, lowercased.
func GuessFromFilename(path string) (string, bool) {
	name := strings.ToLower(filepath.Base(path))
	if !strings.HasSuffix(name, ".img") {
		return "", false
	}

	part := strings.TrimSuffix(name, ".img")
	if part == "" {
		return "", false
	}

	return part, true
}

package archiveport

//go:generate mockgen -destination=../../mocks/mock_archive_port.go -package=mocks github.com/chitacloud/droidflash/ports/archive-port Extractor

// Extractor unpacks firmware archives.
type Extractor interface {
	// Extract unpacks archivePath into destDir and returns the paths of the
	// extracted regular files.
	Extract(archivePath, destDir string) ([]string, error)
}

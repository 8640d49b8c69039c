package fallbackattemptadapter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// TimestampLayout formats the LOG START marker.
const TimestampLayout = "2006-01-02_150405"

// sessionLog is an append-mode copy of one attempt.
//
// Write errors are collected rather than returned so the attempt itself is
// never interrupted by a failing log.
type sessionLog struct {
	ID string

	mu   sync.Mutex
	file *os.File
	err  error
}

var _ io.Writer = (*sessionLog)(nil)

func openSessionLog(path string, now time.Time) (*sessionLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	s := &sessionLog{ID: uuid.NewString(), file: f}
	s.WriteString(fmt.Sprintf("\n\n=== LOG START: %s ===\n", now.Format(TimestampLayout)))
	s.WriteString(fmt.Sprintf("[session %s]\n", s.ID))

	return s, nil
}

// Write implements io.Writer. It always reports success to the caller.
func (s *sessionLog) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(p); err != nil {
		s.err = multierr.Append(s.err, err)
	}

	return len(p), nil
}

// WriteString is a convenience for io.WriteString callers.
func (s *sessionLog) WriteString(text string) (int, error) {
	return s.Write([]byte(text))
}

// Fail records an error observed by another writer of this log.
func (s *sessionLog) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = multierr.Append(s.err, err)
}

// Close writes the end marker and closes the file. It returns every error
// seen during the session.
func (s *sessionLog) Close() error {
	s.WriteString("=== LOG END ===\n")

	s.mu.Lock()
	defer s.mu.Unlock()

	return multierr.Append(s.err, s.file.Close())
}

package defaultoutputadapter

import (
	"io"
	"strings"
	"sync"

	outputport "github.com/chitacloud/droidflash/ports/output-port"
)

var (
	_ outputport.Channel   = (*Queue)(nil)
	_ outputport.Publisher = (*TeePublisher)(nil)
)

// Queue is an unbounded FIFO of transcript chunks.
//
// Any number of goroutines may publish. Drain is intended for a single
// consumer.
type Queue struct {
	mu      sync.Mutex
	pending []string
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Publish appends text to the queue.
func (q *Queue) Publish(text string) {
	q.mu.Lock()
	q.pending = append(q.pending, text)
	q.mu.Unlock()
}

// Drain returns everything published since the last call.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of pending chunks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// TeePublisher publishes to a target and copies every chunk to a writer.
//
// Write errors on the mirror are recorded and do not affect the target.
type TeePublisher struct {
	Target outputport.Publisher
	Mirror io.Writer

	mu  sync.Mutex
	err error
}

// Publish sends text to both destinations.
func (t *TeePublisher) Publish(text string) {
	t.Target.Publish(text)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Mirror == nil || t.err != nil {
		return
	}

	if _, err := io.WriteString(t.Mirror, text); err != nil {
		t.err = err
	}
}

// Err returns the first error encountered writing to the mirror.
func (t *TeePublisher) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Transcript is the append-only text reconstructed from drained chunks.
type Transcript struct {
	mu  sync.Mutex
	buf strings.Builder
	out io.Writer
}

// NewTranscript returns a transcript that also echoes to out, which may be
// nil.
func NewTranscript(out io.Writer) *Transcript {
	return &Transcript{out: out}
}

// Append adds chunks in order.
func (t *Transcript) Append(chunks ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range chunks {
		t.buf.WriteString(c)
		if t.out != nil {
			if _, err := io.WriteString(t.out, c); err != nil {
				return err
			}
		}
	}

	return nil
}

// String returns the full transcript.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
}

package outputport

// Publisher accepts transcript chunks from producers.
type Publisher interface {
	// Publish enqueues text without blocking.
	Publish(text string)
}

// Channel is an unbounded FIFO of transcript chunks with a single consumer.
type Channel interface {
	Publisher

	// Drain removes and returns all pending chunks in arrival order.
	// It returns an empty slice if nothing is pending.
	Drain() []string
}

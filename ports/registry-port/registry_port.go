package registryport

import (
	"context"

	commandport "github.com/chitacloud/droidflash/ports/command-port"
)

// Registry tracks the processes that are currently running.
type Registry interface {
	// Register adds h to the registry.
	Register(h commandport.ProcessHandle)

	// Deregister removes h. Removing an absent handle is a no-op.
	Deregister(h commandport.ProcessHandle)

	// Snapshot returns a point-in-time copy of the registered handles.
	Snapshot() []commandport.ProcessHandle

	// Busy returns true if any registered process is still running.
	Busy() bool

	// TerminateAll stops every registered process and returns true if at
	// least one was stopped.
	TerminateAll(ctx context.Context) bool
}

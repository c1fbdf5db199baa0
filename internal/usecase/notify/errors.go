package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrQueueFull indicates that the dispatcher queue had no free slot.
	// The notification is dropped; the caller is never blocked.
	ErrQueueFull = errors.New("notification queue is full")

	// ErrDispatcherClosed indicates that Send was called after Shutdown.
	ErrDispatcherClosed = errors.New("dispatcher is shut down")
)

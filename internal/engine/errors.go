package engine

import "errors"

var (
	// ErrConcurrentRun means another sysup run holds the run lock. The
	// run is refused before any state changes.
	ErrConcurrentRun = errors.New("another update run is already in progress")

	// ErrAborted means the user stopped the run between items. In-flight
	// tool invocations were allowed to finish.
	ErrAborted = errors.New("update run aborted by user")
)

package bus

import "errors"

var (
	// ErrNoMessages is returned by Fetch when the wait interval elapsed with
	// nothing to deliver.
	ErrNoMessages = errors.New("no messages available")

	// ErrClosed is returned for operations on a closed bus.
	ErrClosed = errors.New("event bus is closed")
)

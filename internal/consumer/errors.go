package consumer

import "errors"

var (
	// ErrMalformedEvent marks an event payload that does not parse or is
	// missing required references. Such events are never acked; redelivery
	// keeps them visible until an operator intervenes.
	ErrMalformedEvent = errors.New("malformed upload event")

	// ErrProcessorRejected wraps a sink failure: the plaintext was
	// recovered but the downstream processor did not accept it.
	ErrProcessorRejected = errors.New("processor rejected plaintext")
)

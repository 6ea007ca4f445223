// Package bus provides the durable event transport between the ingest
// service and the processing consumer, backed by NATS JetStream in
// production and an in-memory queue in tests.
package bus

import "context"

// Stream topology shared by the publisher and every consumer group.
const (
	// StreamName is the JetStream stream holding upload events.
	StreamName = "FILE_UPLOADS"

	// Subject is the single subject upload events are published on.
	Subject = "file.uploads"
)

// EventBus publishes upload events and hands out pull subscriptions.
// Publish must not return before the broker has accepted the message
// into durable storage.
type EventBus interface {
	Publish(ctx context.Context, data []byte) error

	// Subscribe binds a durable pull consumer. Consumers sharing a durable
	// name compete for messages; each message is delivered to one of them
	// at a time.
	Subscribe(durable string) (Subscription, error)

	Close()
}

// Subscription is a durable pull consumer handle.
type Subscription interface {
	// Fetch requests up to batch messages, blocking until at least one is
	// available or ctx expires. An empty interval yields [ErrNoMessages],
	// not an error condition the caller should log.
	Fetch(ctx context.Context, batch int) ([]Message, error)
}

// Message is one delivered event. A message that is never acked is
// redelivered after the ack deadline, indefinitely.
type Message interface {
	Data() []byte

	// Ack marks the message processed. Call it only after every downstream
	// effect has been committed.
	Ack() error
}

package bus

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryBus is the in-memory [EventBus] used in tests. It models JetStream's
// at-least-once contract: fetched messages become in-flight and only Ack
// removes them; Redeliver returns every in-flight message to the queue the
// way an expired ack deadline would.
type MemoryBus struct {
	mu       sync.Mutex
	closed   bool
	queue    [][]byte
	inflight map[int][]byte
	nextID   int
}

// NewMemoryBus returns an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{inflight: make(map[int][]byte)}
}

func (b *MemoryBus) Publish(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.queue = append(b.queue, bytes.Clone(data))
	return nil
}

func (b *MemoryBus) Subscribe(_ string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	return &memorySubscription{bus: b}, nil
}

func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

// Redeliver moves all in-flight messages back to the head of the queue.
func (b *MemoryBus) Redeliver() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var requeued [][]byte
	for _, data := range b.inflight {
		requeued = append(requeued, data)
	}
	b.inflight = make(map[int][]byte)
	b.queue = append(requeued, b.queue...)
}

// Pending reports how many messages are queued (not in-flight).
func (b *MemoryBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Inflight reports how many messages are fetched but not acked.
func (b *MemoryBus) Inflight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}

type memorySubscription struct {
	bus *MemoryBus
}

func (s *memorySubscription) Fetch(ctx context.Context, batch int) ([]Message, error) {
	// Poll instead of blocking on a condition variable: test scenarios
	// publish before fetching, so the first pass almost always hits.
	for {
		msgs, err := s.tryFetch(batch)
		if err != nil || len(msgs) > 0 {
			return msgs, err
		}

		select {
		case <-ctx.Done():
			return nil, ErrNoMessages
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *memorySubscription) tryFetch(batch int) ([]Message, error) {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	var msgs []Message
	for len(msgs) < batch && len(b.queue) > 0 {
		data := b.queue[0]
		b.queue = b.queue[1:]

		id := b.nextID
		b.nextID++
		b.inflight[id] = data

		msgs = append(msgs, &memoryMessage{bus: b, id: id, data: data})
	}
	return msgs, nil
}

type memoryMessage struct {
	bus  *MemoryBus
	id   int
	data []byte
}

func (m *memoryMessage) Data() []byte {
	return m.data
}

func (m *memoryMessage) Ack() error {
	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()
	delete(m.bus.inflight, m.id)
	return nil
}

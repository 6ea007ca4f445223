// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
)

// Stream retention. Events are kept for a week regardless of consumption:
// the consumer acks per message and limits retention lets operators replay
// the stream after an incident.
const (
	streamMaxAge = 168 * time.Hour
	ackWait      = 30 * time.Second
)

// jetStreamBus is the production [EventBus] on NATS JetStream.
type jetStreamBus struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewJetStreamBus connects to the broker and ensures the upload stream
// exists. Both binaries call it, so stream creation is idempotent.
func NewJetStreamBus(cfg config.EventBus, log *logger.Logger) (EventBus, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("audio-vault"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to event bus: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open jetstream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info().Str("url", cfg.URL).Str("stream", StreamName).Msg("event bus connected")

	return &jetStreamBus{conn: conn, js: js, logger: log}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("inspect stream %s: %w", StreamName, err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{Subject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    streamMaxAge,
		Discard:   nats.DiscardOld,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}
	return nil
}

// Publish writes one event and waits for the broker's persistence ack.
func (b *jetStreamBus) Publish(ctx context.Context, data []byte) error {
	_, err := b.js.Publish(Subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publish upload event: %w", err)
	}
	return nil
}

func (b *jetStreamBus) Subscribe(durable string) (Subscription, error) {
	sub, err := b.js.PullSubscribe(Subject, durable,
		nats.BindStream(StreamName),
		nats.AckExplicit(),
		nats.AckWait(ackWait),
		nats.MaxDeliver(-1),
		nats.ManualAck(),
	)
	if err != nil {
		return nil, fmt.Errorf("bind durable consumer %s: %w", durable, err)
	}
	return &jetStreamSubscription{sub: sub}, nil
}

func (b *jetStreamBus) Close() {
	b.conn.Close()
}

type jetStreamSubscription struct {
	sub *nats.Subscription
}

func (s *jetStreamSubscription) Fetch(ctx context.Context, batch int) ([]Message, error) {
	msgs, err := s.sub.Fetch(batch, nats.Context(ctx))
	if err != nil {
		// Timeouts mean an empty interval, not a broken subscription.
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNoMessages
		}
		return nil, fmt.Errorf("fetch upload events: %w", err)
	}

	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, &jetStreamMessage{msg: msg})
	}
	return out, nil
}

type jetStreamMessage struct {
	msg *nats.Msg
}

func (m *jetStreamMessage) Data() []byte {
	return m.msg.Data
}

func (m *jetStreamMessage) Ack() error {
	return m.msg.Ack()
}

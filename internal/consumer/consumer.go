// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package consumer pulls upload events from the durable stream, recovers
// plaintext through the envelope (unwrap the data key, stream-decrypt the
// ciphertext), and hands it to the configured processor.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MKhiriev/go-audio-vault/internal/bus"
	"github.com/MKhiriev/go-audio-vault/internal/crypto"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/store"
	"github.com/MKhiriev/go-audio-vault/models"
)

// DefaultDurable is the consumer-group name shared by all replicas.
const DefaultDurable = "file_processor"

const defaultPullWait = 5 * time.Second

// Consumer is one event-processing worker. Run N of them for parallelism;
// they share the durable subscription and each handles messages serially.
//
// Ack discipline: a message is acked only after the processor accepts the
// plaintext. Every earlier failure leaves the message unacked so the broker
// redelivers it after the ack deadline.
type Consumer struct {
	sub       bus.Subscription
	store     store.ObjectStore
	processor Processor
	masterKey []byte

	pullWait time.Duration
	logger   *logger.Logger
}

// NewConsumer binds the durable subscription and returns a ready worker.
func NewConsumer(events bus.EventBus, objects store.ObjectStore, processor Processor, masterKey []byte, durable string, log *logger.Logger) (*Consumer, error) {
	if durable == "" {
		durable = DefaultDurable
	}
	sub, err := events.Subscribe(durable)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		sub:       sub,
		store:     objects,
		processor: processor,
		masterKey: masterKey,
		pullWait:  defaultPullWait,
		logger:    log,
	}, nil
}

// Start launches the pull loop in a background goroutine and returns. The
// loop exits when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	go c.loop(ctx)
}

func (c *Consumer) loop(ctx context.Context) {
	c.logger.Info().Msg("consumer worker started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("consumer worker stopping")
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.pullWait)
		msgs, err := c.sub.Fetch(fetchCtx, 1)
		cancel()
		if err != nil {
			if !errors.Is(err, bus.ErrNoMessages) && ctx.Err() == nil {
				c.logger.Err(err).Msg("event fetch failed")
			}
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

// handle processes one delivery. It never acks on failure: parse errors,
// missing objects, unwrap failures, and processor rejections all fall
// through to redelivery so nothing is silently dropped.
func (c *Consumer) handle(ctx context.Context, msg bus.Message) {
	event, err := parseEvent(msg.Data())
	if err != nil {
		c.logger.Err(err).Msg("unparseable upload event, leaving for redelivery")
		return
	}

	log := c.logger.With().Str("event_id", event.EventID).Str("object_id", event.ObjectID).Logger()

	if err := c.process(ctx, event); err != nil {
		log.Err(err).Msg("event processing failed, leaving for redelivery")
		return
	}

	if err := msg.Ack(); err != nil {
		// The work is done; the duplicate delivery that follows is
		// absorbed by the processor's idempotency.
		log.Err(err).Msg("ack failed after successful processing")
		return
	}
	log.Info().Msg("event processed and acked")
}

func (c *Consumer) process(ctx context.Context, event models.UploadEvent) error {
	sidecarJSON, err := c.store.GetBytes(ctx, event.EnvelopeRef)
	if err != nil {
		return fmt.Errorf("fetch sidecar: %w", err)
	}
	var sidecar models.Envelope
	if err := json.Unmarshal(sidecarJSON, &sidecar); err != nil {
		return fmt.Errorf("decode sidecar: %w", err)
	}

	dataKey, err := crypto.UnwrapDataKey(sidecar.WrappedDataKey, c.masterKey)
	if err != nil {
		// Master key mismatch or tampering. Unrecoverable without operator
		// action, so the event keeps returning.
		return fmt.Errorf("unwrap data key: %w", err)
	}
	defer crypto.Zero(dataKey)

	ciphertext, err := c.store.GetStream(ctx, event.CiphertextRef)
	if err != nil {
		return fmt.Errorf("open ciphertext: %w", err)
	}
	defer ciphertext.Close()

	plain, err := os.CreateTemp("", "vault-consume-*")
	if err != nil {
		return fmt.Errorf("create plaintext scratch: %w", err)
	}
	defer func() {
		plain.Close()
		os.Remove(plain.Name())
	}()

	if _, err := crypto.DecryptInnerStream(plain, ciphertext, dataKey); err != nil {
		return fmt.Errorf("inner decryption: %w", err)
	}
	if _, err := plain.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind plaintext scratch: %w", err)
	}

	if err := c.processor.Process(ctx, event, sidecar, plain); err != nil {
		return fmt.Errorf("hand off plaintext: %w", err)
	}
	return nil
}

func parseEvent(data []byte) (models.UploadEvent, error) {
	var event models.UploadEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return models.UploadEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.ObjectID == "" || event.CiphertextRef == "" || event.EnvelopeRef == "" {
		return models.UploadEvent{}, fmt.Errorf("%w: missing object references", ErrMalformedEvent)
	}
	return event, nil
}

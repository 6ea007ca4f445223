// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-audio-vault/internal/bus"
	"github.com/MKhiriev/go-audio-vault/internal/credentials"
	"github.com/MKhiriev/go-audio-vault/internal/crypto"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/store"
	"github.com/MKhiriev/go-audio-vault/models"
)

type ingestService struct {
	store       store.ObjectStore
	bus         bus.EventBus
	credentials credentials.Provider

	masterKey   []byte
	verifyOuter bool

	logger *logger.Logger
}

// NewIngestService constructs the [IngestService]. masterKey is the
// process-wide wrapping key; verifyOuter controls whether the client layer
// is decrypted and checked (the default) or stored as received.
func NewIngestService(objects store.ObjectStore, events bus.EventBus, provider credentials.Provider, masterKey []byte, verifyOuter bool, logger *logger.Logger) IngestService {
	return &ingestService{
		store:       objects,
		bus:         events,
		credentials: provider,
		masterKey:   masterKey,
		verifyOuter: verifyOuter,
		logger:      logger,
	}
}

// Upload runs the full ingest sequence. The upload stream passes through
// two scratch files so memory stays bounded regardless of object size:
//
//	body ──outer decrypt──▶ plaintext scratch ──inner encrypt──▶ ciphertext scratch ──▶ object store
//
// The ciphertext and sidecar must both land before the event is published.
// A sidecar failure triggers a best-effort delete of the ciphertext; a
// publish failure leaves both objects in place for later reconciliation.
func (s *ingestService) Upload(ctx context.Context, in UploadInput) (models.UploadResponse, error) {
	log := logger.FromContext(ctx)

	if in.OriginalName == "" || in.Email == "" {
		return models.UploadResponse{}, ErrInvalidInput
	}
	if err := s.authorize(ctx, in); err != nil {
		return models.UploadResponse{}, err
	}

	plainFile, cleanPlain, err := scratchFile("vault-plain-*")
	if err != nil {
		return models.UploadResponse{}, err
	}
	defer cleanPlain()

	originalSize, verified, err := s.unwrapOuter(plainFile, in)
	if err != nil {
		return models.UploadResponse{}, err
	}

	cipherFile, cleanCipher, err := scratchFile("vault-cipher-*")
	if err != nil {
		return models.UploadResponse{}, err
	}
	defer cleanCipher()

	if _, err := plainFile.Seek(0, io.SeekStart); err != nil {
		return models.UploadResponse{}, fmt.Errorf("rewind plaintext scratch: %w", err)
	}
	dataKey, ciphertextLen, err := crypto.EncryptInnerStream(cipherFile, plainFile)
	if err != nil {
		return models.UploadResponse{}, fmt.Errorf("inner encryption: %w", err)
	}

	wrapped, err := crypto.WrapDataKey(dataKey, s.masterKey)
	crypto.Zero(dataKey)
	if err != nil {
		return models.UploadResponse{}, fmt.Errorf("wrap data key: %w", err)
	}

	objectID := uuid.NewString()
	ciphertextKey := store.CiphertextKey(in.Principal, objectID, in.OriginalName)
	sidecarKey := store.SidecarKey(in.Principal, objectID)

	if _, err := cipherFile.Seek(0, io.SeekStart); err != nil {
		return models.UploadResponse{}, fmt.Errorf("rewind ciphertext scratch: %w", err)
	}
	if err := s.store.PutStream(ctx, ciphertextKey, ciphertextLen, cipherFile); err != nil {
		// An aborted stream may still have left a partial object behind.
		s.discardCiphertext(ctx, ciphertextKey, log)
		return models.UploadResponse{}, err
	}

	status := models.StatusNotVerified
	if verified {
		status = models.StatusVerified
	}
	sidecar := models.Envelope{
		Version:            models.EnvelopeVersion,
		WrappedDataKey:     wrapped,
		Algorithm:          models.EnvelopeAlgorithm,
		OriginalFilename:   in.OriginalName,
		OriginalSize:       originalSize,
		EncryptedSize:      ciphertextLen,
		VerificationStatus: status,
		Timestamp:          time.Now().UnixMilli(),
	}
	sidecarJSON, err := json.Marshal(sidecar)
	if err != nil {
		return models.UploadResponse{}, fmt.Errorf("marshal sidecar: %w", err)
	}

	if err := s.store.PutBytes(ctx, sidecarKey, "application/json", sidecarJSON); err != nil {
		// Without a sidecar the ciphertext is undecryptable garbage; try to
		// remove it so the bucket does not accumulate orphans.
		s.discardCiphertext(ctx, ciphertextKey, log)
		return models.UploadResponse{}, err
	}

	event := models.UploadEvent{
		EventID:       uuid.NewString(),
		Principal:     in.Principal,
		ObjectID:      objectID,
		CiphertextRef: ciphertextKey,
		EnvelopeRef:   sidecarKey,
		Bucket:        s.store.Bucket(),
		Timestamp:     time.Now().UnixMilli(),
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return models.UploadResponse{}, fmt.Errorf("marshal upload event: %w", err)
	}
	if err := s.bus.Publish(ctx, eventJSON); err != nil {
		// Objects stay in place; a reconciliation sweep can replay them.
		log.Err(err).Str("object_id", objectID).Msg("event publish failed after persist")
		return models.UploadResponse{}, err
	}

	log.Info().
		Str("object_id", objectID).
		Str("principal", in.Principal).
		Int64("original_size", originalSize).
		Int64("encrypted_size", ciphertextLen).
		Str("verification_status", status).
		Msg("object ingested")

	return models.UploadResponse{ObjectID: objectID, VerificationStatus: status}, nil
}

// discardCiphertext best-effort removes a possibly persisted ciphertext
// after a failed ingest step. It runs detached from the request context:
// the usual trigger is the client going away, which has already canceled
// ctx before the delete could run.
func (s *ingestService) discardCiphertext(ctx context.Context, key string, log *logger.Logger) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Err(err).Str("key", key).Msg("orphaned ciphertext left behind")
	}
}

// authorize re-checks the upload's own credential pair. The session already
// authenticated the caller; this guards against a token holder uploading
// under someone else's identity.
func (s *ingestService) authorize(ctx context.Context, in UploadInput) error {
	if in.Principal != "" && in.Email != in.Principal {
		return ErrAuthFailure
	}

	expected, err := s.credentials.Lookup(ctx, in.Email)
	if err != nil {
		if errors.Is(err, credentials.ErrUnknownCredentials) {
			return ErrAuthFailure
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(in.Passphrase)) != 1 {
		return ErrAuthFailure
	}
	return nil
}

// unwrapOuter fills the plaintext scratch file. With verification enabled
// the client layer is decrypted and its tag checked; otherwise the body is
// stored exactly as received and the object stays NOT_VERIFIED.
func (s *ingestService) unwrapOuter(dst io.Writer, in UploadInput) (int64, bool, error) {
	if !s.verifyOuter {
		n, err := io.Copy(dst, in.Body)
		if err != nil {
			return 0, false, fmt.Errorf("spool upload body: %w", err)
		}
		return n, false, nil
	}

	written, verified, err := crypto.DecryptOuterStream(dst, in.Body, in.Passphrase)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthentication) || errors.Is(err, crypto.ErrFormat) {
			return 0, false, ErrVerificationFailed
		}
		return 0, false, fmt.Errorf("outer decryption: %w", err)
	}
	return written, verified, nil
}

// scratchFile creates an unlinked-on-cleanup temp file for one request.
func scratchFile(pattern string) (*os.File, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("create scratch file: %w", err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}
	return f, cleanup, nil
}

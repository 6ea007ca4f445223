// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store provides the object-store abstraction holding ciphertext
// blobs and their envelope sidecars, with an S3-compatible backend for
// production and an in-memory backend for tests.
package store

import (
	"context"
	"io"
)

// ObjectStore is the blob persistence contract used by the ingest and
// consumer pipelines. Implementations must be safe for concurrent use; one
// shared handle serves all request workers.
//
// Read-after-write consistency is required on a single key. Listing a
// prefix immediately after a put may lag; callers must not rely on
// list-after-put for correctness.
type ObjectStore interface {
	// PutStream uploads length bytes from r under key without buffering
	// the whole object in memory.
	PutStream(ctx context.Context, key string, length int64, r io.Reader) error

	// PutBytes uploads a small object (envelope sidecars) in one call.
	PutBytes(ctx context.Context, key, contentType string, data []byte) error

	// GetStream opens the object at key for reading. The caller closes it.
	// Returns [ErrNotFound] if the key does not exist.
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)

	// GetBytes reads the whole object at key. Intended for sidecars only.
	GetBytes(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at key. Deleting a missing key returns
	// [ErrNotFound] so callers can distinguish idempotent repeats.
	Delete(ctx context.Context, key string) error

	// Bucket reports the bucket name, which travels inside upload events.
	Bucket() string
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package models contains the wire-level and domain types shared between the
// ingest service, the consumer, and the HTTP transport layer. All JSON field
// names in this package are part of the storage/stream contract and must not
// be renamed.
package models

// Verification status values recorded in the envelope sidecar. VERIFIED is
// set only when the outer (client) encryption layer was decrypted and its
// GCM tag checked during ingest.
const (
	StatusVerified    = "VERIFIED"
	StatusNotVerified = "NOT_VERIFIED"
)

// EnvelopeVersion is the sidecar format version emitted by this code base.
const EnvelopeVersion = "1.0"

// EnvelopeAlgorithm names the symmetric algorithm used for the inner layer.
const EnvelopeAlgorithm = "AES-GCM-256"

// Envelope is the JSON sidecar stored next to every ciphertext object.
//
// The field stored under "kek" actually carries the *wrapped data key*
// (nonce ‖ ciphertext ‖ tag, base64). The name is a historical misnomer kept
// for byte-compatibility with existing sidecars; do not rename it.
type Envelope struct {
	Version            string `json:"version"`
	WrappedDataKey     string `json:"kek"`
	Algorithm          string `json:"algorithm"`
	OriginalFilename   string `json:"original_filename"`
	OriginalSize       int64  `json:"original_size"`
	EncryptedSize      int64  `json:"encrypted_size"`
	VerificationStatus string `json:"verification_status"`
	Timestamp          int64  `json:"timestamp"`
}

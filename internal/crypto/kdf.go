// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Iterations is the iteration count used for passphrase derivation.
// It is part of the wire contract with the client-side encryption code and
// must not change without a format version bump.
const PBKDF2Iterations = 100_000

// DeriveKey derives the 32-byte outer-layer key from a passphrase and a
// 16-byte salt using PBKDF2-HMAC-SHA256. The derivation is deterministic:
// identical inputs produce a byte-identical key, which is what lets the
// server re-derive the key the client used.
//
// The caller owns the returned slice and should [Zero] it after use.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// Zero overwrites b with zero bytes. Used to wipe data keys, derived keys,
// and plaintext chunk buffers after their last use.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

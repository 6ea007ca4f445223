// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto is the cryptographic core of the audio vault. It is a pure
// library: no I/O beyond the readers and writers handed to it, no logging,
// no global state.
//
// Two encryption layers share one wire discipline (AES-256-GCM, 12-byte
// nonce, 16-byte trailing tag):
//
//	outer (client layer):  salt(16) ‖ nonce(12) ‖ ciphertext ‖ tag(16)
//	inner (storage layer): nonce(12) ‖ ciphertext ‖ tag(16)
//
// The outer key is derived from the user's passphrase with
// PBKDF2-HMAC-SHA256; the inner key is a fresh random data key per object,
// wrapped under the process master key by [WrapDataKey].
//
// All stream operations work in 8 KiB chunks so that arbitrarily large
// inputs pass through bounded memory. Chunking never changes the output
// bytes: the GCM tag appears exactly once, at the end.
package crypto

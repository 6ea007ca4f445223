// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// WrappedKeySize is the decoded length of a wrapped data key:
// nonce (12) ‖ encrypted key (32) ‖ tag (16).
const WrappedKeySize = NonceSize + KeySize + TagSize

// WrapDataKey encrypts a 32-byte data key under the master key with
// AES-256-GCM and a fresh nonce, returning base64(nonce ‖ ciphertext ‖ tag)
// — always 80 characters. This is the value stored in the sidecar's "kek"
// field.
func WrapDataKey(dataKey, masterKey []byte) (string, error) {
	if len(dataKey) != KeySize || len(masterKey) != KeySize {
		return "", ErrKeySize
	}

	gcm, err := newGCM(masterKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate wrap nonce: %w", err)
	}

	// Seal appends ciphertext ‖ tag after the nonce already in the slice.
	blob := gcm.Seal(nonce, nonce, dataKey, nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// UnwrapDataKey reverses [WrapDataKey]. It returns [ErrFormat] when the
// input is not valid base64 of exactly [WrappedKeySize] bytes, and
// [ErrAuthentication] when the tag does not verify — a wrong master key and
// a tampered blob are indistinguishable here.
//
// The caller owns the returned key and should [Zero] it after use.
func UnwrapDataKey(wrapped string, masterKey []byte) ([]byte, error) {
	if len(masterKey) != KeySize {
		return nil, ErrKeySize
	}

	blob, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key is not base64: %w", ErrFormat, err)
	}
	if len(blob) != WrappedKeySize {
		return nil, fmt.Errorf("%w: wrapped key is %d bytes, want %d", ErrFormat, len(blob), WrappedKeySize)
	}

	gcm, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := blob[:NonceSize], blob[NonceSize:]
	dataKey, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}

	return dataKey, nil
}

// newGCM builds a one-shot AEAD for the small wrap/unwrap operations, where
// the whole payload (32 bytes) fits in memory trivially.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

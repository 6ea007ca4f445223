// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	dataKey := bytes.Repeat([]byte{0xD0}, KeySize)
	masterKey := bytes.Repeat([]byte{0x11}, KeySize)

	wrapped, err := WrapDataKey(dataKey, masterKey)
	if err != nil {
		t.Fatalf("WrapDataKey error: %v", err)
	}

	if len(wrapped) != 80 {
		t.Fatalf("wrapped key is %d chars, want 80", len(wrapped))
	}
	decoded, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		t.Fatalf("wrapped key is not valid base64: %v", err)
	}
	if len(decoded) != WrappedKeySize {
		t.Fatalf("decoded wrapped key is %d bytes, want %d", len(decoded), WrappedKeySize)
	}

	unwrapped, err := UnwrapDataKey(wrapped, masterKey)
	if err != nil {
		t.Fatalf("UnwrapDataKey error: %v", err)
	}
	if !bytes.Equal(unwrapped, dataKey) {
		t.Fatal("unwrapped key differs from original")
	}
}

func TestUnwrap_WrongMasterKey(t *testing.T) {
	dataKey := bytes.Repeat([]byte{0xD0}, KeySize)
	masterKey := bytes.Repeat([]byte{0x11}, KeySize)
	otherKey := bytes.Repeat([]byte{0x22}, KeySize)

	wrapped, err := WrapDataKey(dataKey, masterKey)
	if err != nil {
		t.Fatalf("WrapDataKey error: %v", err)
	}

	if _, err := UnwrapDataKey(wrapped, otherKey); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
}

func TestUnwrap_BitFlipFails(t *testing.T) {
	dataKey := bytes.Repeat([]byte{0xD0}, KeySize)
	masterKey := bytes.Repeat([]byte{0x11}, KeySize)

	wrapped, err := WrapDataKey(dataKey, masterKey)
	if err != nil {
		t.Fatalf("WrapDataKey error: %v", err)
	}

	blob, _ := base64.StdEncoding.DecodeString(wrapped)
	for _, offset := range []int{0, NonceSize, WrappedKeySize - 1} {
		mutated := bytes.Clone(blob)
		mutated[offset] ^= 0x01
		again := base64.StdEncoding.EncodeToString(mutated)

		if _, err := UnwrapDataKey(again, masterKey); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("offset %d: err = %v, want ErrAuthentication", offset, err)
		}
	}
}

func TestUnwrap_MalformedInput(t *testing.T) {
	masterKey := bytes.Repeat([]byte{0x11}, KeySize)

	if _, err := UnwrapDataKey("not base64 at all!!!", masterKey); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	if _, err := UnwrapDataKey(short, masterKey); !errors.Is(err, ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
}

func TestWrap_FreshNoncePerCall(t *testing.T) {
	dataKey := bytes.Repeat([]byte{0xD0}, KeySize)
	masterKey := bytes.Repeat([]byte{0x11}, KeySize)

	w1, err := WrapDataKey(dataKey, masterKey)
	if err != nil {
		t.Fatalf("WrapDataKey error: %v", err)
	}
	w2, err := WrapDataKey(dataKey, masterKey)
	if err != nil {
		t.Fatalf("WrapDataKey error: %v", err)
	}

	if w1 == w2 {
		t.Fatal("expected distinct wrap outputs for the same key (fresh nonce per wrap)")
	}
}

func TestWrap_RejectsBadKeySizes(t *testing.T) {
	good := bytes.Repeat([]byte{0x01}, KeySize)
	bad := bytes.Repeat([]byte{0x01}, 16)

	if _, err := WrapDataKey(bad, good); !errors.Is(err, ErrKeySize) {
		t.Fatalf("err = %v, want ErrKeySize", err)
	}
	if _, err := WrapDataKey(good, bad); !errors.Is(err, ErrKeySize) {
		t.Fatalf("err = %v, want ErrKeySize", err)
	}
}

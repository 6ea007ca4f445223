// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
)

// EncryptOuterStream applies the client-layer encryption server-side:
// a fresh salt and nonce are generated, the key is derived from passphrase,
// and dst receives salt ‖ nonce ‖ ciphertext ‖ tag. The ingest path never
// calls this — the client encrypts — but tooling and tests do.
//
// Returns the number of plaintext bytes consumed.
func EncryptOuterStream(dst io.Writer, src io.Reader, passphrase string) (int64, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return 0, fmt.Errorf("generate salt: %w", err)
	}

	key := DeriveKey(passphrase, salt)
	defer Zero(key)

	if _, err := dst.Write(salt); err != nil {
		return 0, fmt.Errorf("write salt: %w", err)
	}

	return sealStream(dst, src, key)
}

// DecryptOuterStream reads the client-layer format
// (salt ‖ nonce ‖ ciphertext ‖ tag) from src, derives the key from
// passphrase and streams the plaintext into dst.
//
// verified is true only when GCM finalization succeeded. On
// [ErrAuthentication] the bytes already written to dst are NOT authentic
// plaintext and must be discarded by the caller; on [ErrFormat] the stream
// was truncated before a full tag arrived.
func DecryptOuterStream(dst io.Writer, src io.Reader, passphrase string) (written int64, verified bool, err error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return 0, false, fmt.Errorf("%w: short salt: %w", ErrFormat, err)
	}

	key := DeriveKey(passphrase, salt)
	defer Zero(key)

	written, err = openStream(dst, src, key)
	return written, err == nil, err
}

// EncryptInnerStream encrypts src under a freshly generated 32-byte data
// key, writing nonce ‖ ciphertext ‖ tag to dst. It returns the cleartext
// data key — the caller MUST wrap it immediately and [Zero] it — and the
// total number of ciphertext bytes written (nonce and tag included).
func EncryptInnerStream(dst io.Writer, src io.Reader) (dataKey []byte, ciphertextLen int64, err error) {
	dataKey = make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, dataKey); err != nil {
		return nil, 0, fmt.Errorf("generate data key: %w", err)
	}

	n, err := sealStream(dst, src, dataKey)
	if err != nil {
		Zero(dataKey)
		return nil, 0, err
	}

	return dataKey, n, nil
}

// DecryptInnerStream reads the storage format (nonce ‖ ciphertext ‖ tag)
// from src and streams the plaintext into dst. Same authenticity contract
// as [DecryptOuterStream]: on error, dst holds garbage.
func DecryptInnerStream(dst io.Writer, src io.Reader, dataKey []byte) (int64, error) {
	return openStream(dst, src, dataKey)
}

// sealStream writes nonce ‖ ciphertext ‖ tag for the plaintext in src.
// Returns the total bytes written to dst.
func sealStream(dst io.Writer, src io.Reader, key []byte) (int64, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return 0, fmt.Errorf("generate nonce: %w", err)
	}

	g, err := newGCMStream(key, nonce)
	if err != nil {
		return 0, err
	}

	if _, err := dst.Write(nonce); err != nil {
		return 0, fmt.Errorf("write nonce: %w", err)
	}
	written := int64(NonceSize)

	buf := make([]byte, ChunkSize)
	defer Zero(buf) // last chunk of plaintext lingers here otherwise

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			g.xorKeyStream(buf[:n], buf[:n])
			g.ghashUpdate(buf[:n])
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("write ciphertext: %w", werr)
			}
			written += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, fmt.Errorf("read plaintext: %w", rerr)
		}
	}

	tag := g.finalTag()
	if _, err := dst.Write(tag[:]); err != nil {
		return written, fmt.Errorf("write tag: %w", err)
	}
	return written + TagSize, nil
}

// openStream reads nonce ‖ ciphertext ‖ tag from src and writes plaintext
// to dst. The final TagSize bytes are held back from decryption so they can
// be compared — in constant time — against the computed tag at EOF.
func openStream(dst io.Writer, src io.Reader, key []byte) (int64, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(src, nonce); err != nil {
		return 0, fmt.Errorf("%w: short nonce: %w", ErrFormat, err)
	}

	g, err := newGCMStream(key, nonce)
	if err != nil {
		return 0, err
	}

	var (
		written int64
		carry   [TagSize]byte // candidate tag: the last TagSize bytes seen
		carried int
	)

	buf := make([]byte, ChunkSize)
	scratch := make([]byte, 0, ChunkSize+TagSize)
	defer Zero(scratch[:cap(scratch)])

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			scratch = scratch[:0]
			scratch = append(scratch, carry[:carried]...)
			scratch = append(scratch, buf[:n]...)

			if len(scratch) > TagSize {
				body := scratch[:len(scratch)-TagSize]
				g.ghashUpdate(body)
				g.xorKeyStream(body, body)
				if _, werr := dst.Write(body); werr != nil {
					return written, fmt.Errorf("write plaintext: %w", werr)
				}
				written += int64(len(body))
				carried = copy(carry[:], scratch[len(scratch)-TagSize:])
			} else {
				carried = copy(carry[:], scratch)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, fmt.Errorf("read ciphertext: %w", rerr)
		}
	}

	if carried < TagSize {
		return written, fmt.Errorf("%w: stream shorter than its authentication tag", ErrFormat)
	}

	expected := g.finalTag()
	if subtle.ConstantTimeCompare(expected[:], carry[:]) != 1 {
		return written, ErrAuthentication
	}
	return written, nil
}

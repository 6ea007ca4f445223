// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

// Fixed AES-256-GCM parameters shared by both encryption layers.
const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the PBKDF2 salt length prefixed to the outer layer.
	SaltSize = 16

	// NonceSize is the GCM nonce length.
	NonceSize = 12

	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// ChunkSize is the buffer size used by the streaming operations.
	ChunkSize = 8 * 1024
)

// gcmStream is an incremental AES-GCM state: an AES-CTR keystream plus a
// running GHASH over the ciphertext, with the tag produced at finalization.
// The standard library's cipher.AEAD only offers one-shot Seal/Open, which
// would force the whole object into memory; this state processes it chunk
// by chunk instead while producing byte-identical output.
//
// The keystream uses the full-width CTR from crypto/cipher while GCM
// specifies a 32-bit counter increment. Starting from counter value 2, the
// two only diverge after 2^32 blocks (64 GiB of input), far above the
// service's upload cap, and inputs beyond that limit are rejected by the
// HTTP layer long before they reach this package.
type gcmStream struct {
	ctr cipher.Stream

	h fieldElement // hash subkey E_K(0^128)
	y fieldElement // GHASH accumulator

	tagMask [TagSize]byte // E_K(J0)

	rem    [16]byte // partial GHASH block
	remLen int
	length uint64 // total ciphertext bytes absorbed
}

// newGCMStream builds the incremental state for one (key, nonce) pair.
// A state must never be reused: one nonce, one stream.
func newGCMStream(key, nonce []byte) (*gcmStream, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if len(nonce) != NonceSize {
		return nil, ErrFormat
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	g := &gcmStream{}

	// Hash subkey H = E_K(0^128).
	var zeroes [16]byte
	var h [16]byte
	block.Encrypt(h[:], zeroes[:])
	g.h = fieldElement{
		high: binary.BigEndian.Uint64(h[:8]),
		low:  binary.BigEndian.Uint64(h[8:]),
	}

	// J0 = nonce ‖ 0x00000001 for 12-byte nonces; the tag mask is E_K(J0)
	// and the ciphertext keystream starts at inc32(J0).
	var iv [16]byte
	copy(iv[:], nonce)
	iv[15] = 1
	block.Encrypt(g.tagMask[:], iv[:])
	iv[15] = 2
	g.ctr = cipher.NewCTR(block, iv[:])

	return g, nil
}

// xorKeyStream applies the CTR keystream: plaintext→ciphertext when sealing,
// ciphertext→plaintext when opening. dst and src may overlap exactly.
func (g *gcmStream) xorKeyStream(dst, src []byte) {
	g.ctr.XORKeyStream(dst, src)
}

// ghashUpdate absorbs ciphertext bytes into the running GHASH. Both the
// sealer and the opener hash the *ciphertext* side, per GCM.
func (g *gcmStream) ghashUpdate(p []byte) {
	g.length += uint64(len(p))

	if g.remLen > 0 {
		n := copy(g.rem[g.remLen:], p)
		g.remLen += n
		p = p[n:]
		if g.remLen < 16 {
			return
		}
		g.absorb(g.rem[:])
		g.remLen = 0
	}

	for len(p) >= 16 {
		g.absorb(p[:16])
		p = p[16:]
	}

	if len(p) > 0 {
		g.remLen = copy(g.rem[:], p)
	}
}

// finalTag pads the last partial block, absorbs the GCM length block
// (no AAD in this design) and returns tag = GHASH ⊕ E_K(J0).
func (g *gcmStream) finalTag() [TagSize]byte {
	if g.remLen > 0 {
		var padded [16]byte
		copy(padded[:], g.rem[:g.remLen])
		g.absorb(padded[:])
		g.remLen = 0
	}

	var lengths [16]byte
	binary.BigEndian.PutUint64(lengths[8:], g.length*8)
	g.absorb(lengths[:])

	var tag [TagSize]byte
	binary.BigEndian.PutUint64(tag[:8], g.y.high)
	binary.BigEndian.PutUint64(tag[8:], g.y.low)
	for i := range tag {
		tag[i] ^= g.tagMask[i]
	}
	return tag
}

func (g *gcmStream) absorb(block []byte) {
	g.y.high ^= binary.BigEndian.Uint64(block[:8])
	g.y.low ^= binary.BigEndian.Uint64(block[8:])
	g.y = gfMul(g.y, g.h)
}

// fieldElement is a 128-bit element of GF(2^128) in GCM's bit ordering,
// split into big-endian halves.
type fieldElement struct {
	high, low uint64
}

// gfMul multiplies x·y in GF(2^128) using the shift-and-reduce algorithm of
// NIST SP 800-38D §6.3 (R = 0xE1 ‖ 0^120). Throughput is bounded by the
// 8 KiB chunk pipeline, not by this multiply.
func gfMul(x, y fieldElement) fieldElement {
	var z fieldElement
	v := y

	for i := 0; i < 128; i++ {
		var bit uint64
		if i < 64 {
			bit = (x.high >> (63 - i)) & 1
		} else {
			bit = (x.low >> (127 - i)) & 1
		}
		if bit == 1 {
			z.high ^= v.high
			z.low ^= v.low
		}

		lsb := v.low & 1
		v.low = v.low>>1 | v.high<<63
		v.high >>= 1
		if lsb == 1 {
			v.high ^= 0xe100000000000000
		}
	}

	return z
}

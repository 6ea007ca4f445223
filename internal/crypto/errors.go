package crypto

import "errors"

var (
	// ErrAuthentication is returned when a GCM tag does not verify: wrong
	// passphrase, wrong master key, or tampered ciphertext. Callers must
	// discard any bytes already written to their sink.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrFormat is returned when the input cannot be parsed as the expected
	// wire layout (truncated header, missing tag, bad base64, wrong wrapped
	// key length).
	ErrFormat = errors.New("malformed ciphertext")

	// ErrKeySize is returned when a key of the wrong length is supplied.
	ErrKeySize = errors.New("invalid key size")
)

package service

import "errors"

var (
	// ErrAuthFailure covers every authentication rejection: unknown
	// passphrase, unknown principal, principal/passphrase mismatch. One
	// error for all cases so responses stay generic.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrVerificationFailed means the client encryption layer did not
	// authenticate: wrong passphrase material or a corrupted upload.
	ErrVerificationFailed = errors.New("client layer verification failed")

	// ErrInvalidInput flags missing or empty request fields.
	ErrInvalidInput = errors.New("invalid input")
)

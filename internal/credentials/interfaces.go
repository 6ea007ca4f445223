// Package credentials maps upload passphrases to principals and back.
// Authentication is deliberately passphrase-first: the client proves it
// holds a provisioned passphrase and learns which principal it acts as.
package credentials

import "context"

// Provider is the credential lookup contract. Implementations must be safe
// for concurrent use.
//
// Both directions fail with [ErrUnknownCredentials] and nothing more
// specific; callers surface one generic auth failure regardless of whether
// the passphrase or the principal was wrong.
type Provider interface {
	// Resolve returns the principal provisioned for passphrase.
	Resolve(ctx context.Context, passphrase string) (string, error)

	// Lookup returns the passphrase provisioned for principal. The ingest
	// pipeline uses it to verify the client encryption layer.
	Lookup(ctx context.Context, principal string) (string, error)
}

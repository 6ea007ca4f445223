package models

import "time"

// Session is an in-memory authenticated session created by a successful
// passphrase validation. Sessions are never persisted; a restart logs
// everyone out.
type Session struct {
	// Token is the opaque, URL-safe session identifier handed to the
	// client. 32 bytes of CSPRNG output, base64url-encoded.
	Token string

	// Principal is the identity the session was issued for.
	Principal string

	CreatedAt  time.Time
	LastSeenAt time.Time
}

package service

import (
	"context"
	"io"

	"github.com/MKhiriev/go-audio-vault/models"
)

// AuthService exchanges passphrases for bearer sessions and revokes them.
type AuthService interface {
	// ValidatePassphrase resolves the passphrase to a principal and issues a
	// session. Every rejection is [ErrAuthFailure].
	ValidatePassphrase(ctx context.Context, passphrase string) (models.Session, error)

	// Logout revokes the session token. Unknown tokens are a no-op.
	Logout(ctx context.Context, token string)
}

// UploadInput carries one upload request into the ingest pipeline. Body is
// the raw client-encrypted stream (salt ‖ nonce ‖ ciphertext ‖ tag).
type UploadInput struct {
	Principal    string
	Email        string
	Passphrase   string
	OriginalName string
	Body         io.Reader
}

// IngestService runs the store-side half of the two-stage pipeline: verify
// the client layer, re-encrypt under a fresh data key, persist, publish.
type IngestService interface {
	Upload(ctx context.Context, in UploadInput) (models.UploadResponse, error)
}

// VaultService serves listing and deletion over a principal's stored
// objects.
type VaultService interface {
	// List returns one record per object owned by principal, decoded from
	// the sidecars. Wrapped data keys are never included.
	List(ctx context.Context, principal string) ([]models.FileRecord, error)

	// Delete removes an object's ciphertext and sidecar. Missing keys are
	// reported, not errors: deletion is idempotent.
	Delete(ctx context.Context, principal, objectID, originalName string) (models.DeleteResponse, error)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ValidatePassphraseRequest is the body of POST /api/validate-passphrase.
type ValidatePassphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// ValidatePassphraseResponse is returned on a successful passphrase check.
type ValidatePassphraseResponse struct {
	Validated bool   `json:"validated"`
	Token     string `json:"token"`
}

// UploadResponse is returned by POST /api/upload on success.
type UploadResponse struct {
	ObjectID           string `json:"object_id"`
	VerificationStatus string `json:"verification_status"`
}

// FileRecord is one element of the GET /api/files response. It mirrors the
// descriptive sidecar fields but deliberately omits the wrapped data key.
type FileRecord struct {
	ObjectID           string `json:"object_id"`
	OriginalFilename   string `json:"original_filename"`
	OriginalSize       int64  `json:"original_size"`
	EncryptedSize      int64  `json:"encrypted_size"`
	VerificationStatus string `json:"verification_status"`
	Timestamp          int64  `json:"timestamp"`
}

// DeleteResponse is returned by DELETE /api/files. Deleting an object that
// does not exist is not an error; NotFound records what was missing.
type DeleteResponse struct {
	Deleted  []string `json:"deleted,omitempty"`
	NotFound []string `json:"not_found,omitempty"`
}

// ErrorResponse carries a short generic message. Internal paths, key
// material, and error chains never appear here.
type ErrorResponse struct {
	Error string `json:"error"`
}

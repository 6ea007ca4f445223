// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"strings"
)

// Key layout inside the bucket. These templates are a compatibility
// contract: existing objects were written with them and the consumer
// resolves events against them.
//
//	uploads/{principal}/{uuid}/{original_name}.enc
//	uploads/{principal}/{uuid}/metadata.json
const (
	keyRoot = "uploads"

	// SidecarName is the fixed file name of the envelope sidecar.
	SidecarName = "metadata.json"

	// CiphertextSuffix is appended to the original file name for the
	// ciphertext object. Some historical objects carry ".encrypted"
	// instead; deletion tolerates both.
	CiphertextSuffix = ".enc"

	// legacyCiphertextSuffix is accepted on delete for old objects.
	legacyCiphertextSuffix = ".encrypted"
)

// CiphertextKey returns the object-store key of an upload's ciphertext.
func CiphertextKey(principal, objectID, originalName string) string {
	return fmt.Sprintf("%s/%s/%s/%s%s", keyRoot, principal, objectID, originalName, CiphertextSuffix)
}

// SidecarKey returns the object-store key of an upload's envelope sidecar.
func SidecarKey(principal, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", keyRoot, principal, objectID, SidecarName)
}

// PrincipalPrefix returns the listing prefix covering all of a principal's
// objects.
func PrincipalPrefix(principal string) string {
	return fmt.Sprintf("%s/%s/", keyRoot, principal)
}

// ObjectPrefix returns the prefix covering one object's two sibling keys.
func ObjectPrefix(principal, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/", keyRoot, principal, objectID)
}

// CiphertextKeyVariants returns the candidate ciphertext keys for deletion:
// originalName may arrive with no suffix, with ".enc", or with the legacy
// ".encrypted" suffix.
func CiphertextKeyVariants(principal, objectID, originalName string) []string {
	base := strings.TrimSuffix(strings.TrimSuffix(originalName, CiphertextSuffix), legacyCiphertextSuffix)
	prefix := ObjectPrefix(principal, objectID)
	return []string{
		prefix + base + CiphertextSuffix,
		prefix + base + legacyCiphertextSuffix,
	}
}

// ParseKey splits an object-store key back into its layout components.
// name is the final path element (the sidecar name or the suffixed
// ciphertext name). Returns [ErrNotAnObjectKey] for foreign keys.
func ParseKey(key string) (principal, objectID, name string, err error) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != keyRoot || parts[1] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrNotAnObjectKey, key)
	}
	return parts[1], parts[2], parts[3], nil
}

// IsSidecarKey reports whether key points at an envelope sidecar.
func IsSidecarKey(key string) bool {
	return strings.HasSuffix(key, "/"+SidecarName)
}

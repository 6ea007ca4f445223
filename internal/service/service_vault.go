// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/store"
	"github.com/MKhiriev/go-audio-vault/models"
)

type vaultService struct {
	store store.ObjectStore

	logger *logger.Logger
}

// NewVaultService constructs the [VaultService] over the object store.
func NewVaultService(objects store.ObjectStore, logger *logger.Logger) VaultService {
	return &vaultService{
		store:  objects,
		logger: logger,
	}
}

func (v *vaultService) List(ctx context.Context, principal string) ([]models.FileRecord, error) {
	log := logger.FromContext(ctx)

	keys, err := v.store.List(ctx, store.PrincipalPrefix(principal))
	if err != nil {
		return nil, err
	}

	records := make([]models.FileRecord, 0, len(keys))
	for _, key := range keys {
		if !store.IsSidecarKey(key) {
			continue
		}

		data, err := v.store.GetBytes(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Deleted between list and get; skip.
				continue
			}
			return nil, err
		}

		var sidecar models.Envelope
		if err := json.Unmarshal(data, &sidecar); err != nil {
			// A malformed sidecar must not take the whole listing down.
			log.Warn().Str("key", key).Msg("skipping unreadable sidecar")
			continue
		}

		_, objectID, _, err := store.ParseKey(key)
		if err != nil {
			log.Warn().Str("key", key).Msg("skipping sidecar outside the object layout")
			continue
		}

		records = append(records, models.FileRecord{
			ObjectID:           objectID,
			OriginalFilename:   sidecar.OriginalFilename,
			OriginalSize:       sidecar.OriginalSize,
			EncryptedSize:      sidecar.EncryptedSize,
			VerificationStatus: sidecar.VerificationStatus,
			Timestamp:          sidecar.Timestamp,
		})
	}

	return records, nil
}

func (v *vaultService) Delete(ctx context.Context, principal, objectID, originalName string) (models.DeleteResponse, error) {
	log := logger.FromContext(ctx)

	var resp models.DeleteResponse

	// The ciphertext may carry either suffix; try both, count one hit.
	deletedCiphertext := false
	variants := store.CiphertextKeyVariants(principal, objectID, originalName)
	for _, key := range variants {
		err := v.store.Delete(ctx, key)
		switch {
		case err == nil:
			resp.Deleted = append(resp.Deleted, key)
			deletedCiphertext = true
		case errors.Is(err, store.ErrNotFound):
			// try the next variant
		default:
			return models.DeleteResponse{}, err
		}
		if deletedCiphertext {
			break
		}
	}
	if !deletedCiphertext {
		resp.NotFound = append(resp.NotFound, variants[0])
	}

	sidecarKey := store.SidecarKey(principal, objectID)
	err := v.store.Delete(ctx, sidecarKey)
	switch {
	case err == nil:
		resp.Deleted = append(resp.Deleted, sidecarKey)
	case errors.Is(err, store.ErrNotFound):
		resp.NotFound = append(resp.NotFound, sidecarKey)
	default:
		return models.DeleteResponse{}, err
	}

	log.Info().
		Str("principal", principal).
		Str("object_id", objectID).
		Int("deleted", len(resp.Deleted)).
		Msg("object deletion processed")

	return resp, nil
}

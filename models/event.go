// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// UploadEvent is the durable event published to the FILE_UPLOADS stream for
// every successfully ingested object. The JSON names are the stream wire
// contract: the principal travels as "email" and the object UUID as
// "file_uuid".
type UploadEvent struct {
	EventID       string `json:"event_id"`
	Principal     string `json:"email"`
	ObjectID      string `json:"file_uuid"`
	CiphertextRef string `json:"s3_data_key"`
	EnvelopeRef   string `json:"s3_metadata_key"`
	Bucket        string `json:"bucket_name"`
	Timestamp     int64  `json:"ts_ms"`
}

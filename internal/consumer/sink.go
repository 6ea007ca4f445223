// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package consumer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/utils"
	"github.com/MKhiriev/go-audio-vault/models"
)

// Processor receives the recovered plaintext of one upload. Implementations
// must be idempotent: the bus redelivers unacked events, so the same object
// may arrive more than once and the second delivery must not corrupt the
// first one's output.
type Processor interface {
	Process(ctx context.Context, event models.UploadEvent, sidecar models.Envelope, plaintext io.Reader) error
}

// FileProcessor writes plaintext to the local filesystem under
//
//	{outputDir}/{principal}/{object_id}/{original_filename}
//
// The write goes through a temp file in the target directory followed by a
// rename, so redelivery deterministically overwrites instead of appending.
type FileProcessor struct {
	outputDir string
	logger    *logger.Logger
}

// NewFileProcessor returns a [Processor] writing under outputDir.
func NewFileProcessor(outputDir string, log *logger.Logger) *FileProcessor {
	return &FileProcessor{outputDir: outputDir, logger: log}
}

func (p *FileProcessor) Process(_ context.Context, event models.UploadEvent, sidecar models.Envelope, plaintext io.Reader) error {
	dir := filepath.Join(p.outputDir, event.Principal, event.ObjectID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("create output temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, plaintext); err != nil {
		tmp.Close()
		return fmt.Errorf("write plaintext: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output temp file: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(sidecar.OriginalFilename))
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("publish output file: %w", err)
	}

	p.logger.Info().Str("object_id", event.ObjectID).Str("path", target).Msg("plaintext delivered to filesystem")
	return nil
}

// HTTPProcessor forwards plaintext to a downstream HTTP endpoint. The
// object identity travels in headers so the body stays the raw payload.
type HTTPProcessor struct {
	client   *utils.HTTPClient
	endpoint string
	logger   *logger.Logger
}

// NewHTTPProcessor returns a [Processor] posting plaintext to endpoint.
func NewHTTPProcessor(endpoint string, log *logger.Logger) *HTTPProcessor {
	return &HTTPProcessor{
		client:   utils.NewHTTPClient(),
		endpoint: endpoint,
		logger:   log,
	}
}

func (p *HTTPProcessor) Process(ctx context.Context, event models.UploadEvent, sidecar models.Envelope, plaintext io.Reader) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetHeader("X-Object-ID", event.ObjectID).
		SetHeader("X-Principal", event.Principal).
		SetHeader("X-Original-Filename", sidecar.OriginalFilename).
		SetBody(plaintext).
		Post(p.endpoint)
	if err != nil {
		return fmt.Errorf("forward plaintext: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: downstream returned %d", ErrProcessorRejected, resp.StatusCode())
	}

	p.logger.Info().Str("object_id", event.ObjectID).Int("status", resp.StatusCode()).Msg("plaintext delivered downstream")
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
)

// s3Store is the S3-compatible implementation of [ObjectStore]. It works
// against AWS S3 as well as MinIO-style endpoints (custom base endpoint,
// path-style addressing).
//
// Transient failures on small, replayable operations are retried up to
// maxAttempts with exponential backoff. PutStream is deliberately not
// retried: its body is a one-shot reader and the ingest pipeline owns the
// compensation path.
type s3Store struct {
	client *s3.Client
	bucket string
	logger *logger.Logger

	maxAttempts    int
	initialBackoff time.Duration
}

// NewS3Store builds the production [ObjectStore] from configuration and
// verifies nothing: S3 buckets are provisioned out-of-band and the first
// real call surfaces any misconfiguration.
func NewS3Store(ctx context.Context, cfg config.ObjectStore, log *logger.Logger) (ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.Secret, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// MinIO and friends route by path, not by virtual host.
			o.UsePathStyle = true
		}
	})

	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("object store client created")

	return &s3Store{
		client:         client,
		bucket:         cfg.Bucket,
		logger:         log,
		maxAttempts:    3,
		initialBackoff: 100 * time.Millisecond,
	}, nil
}

func (s *s3Store) Bucket() string {
	return s.bucket
}

func (s *s3Store) PutStream(ctx context.Context, key string, length int64, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(length),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) PutBytes(ctx context.Context, key, contentType string, data []byte) error {
	return s.withRetry(ctx, "PutBytes", key, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(contentType),
		})
		return err
	})
}

func (s *s3Store) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapNotFound(key, err)
	}
	return out.Body, nil
}

func (s *s3Store) GetBytes(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.withRetry(ctx, "GetBytes", key, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, mapNotFound(key, err)
	}
	return data, nil
}

func (s *s3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	// S3 DeleteObject succeeds on missing keys, so probe first: callers
	// need NotFound for idempotency reporting.
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapNotFound(key, err)
	}

	return s.withRetry(ctx, "Delete", key, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
}

// withRetry runs op up to maxAttempts times with exponential backoff,
// retrying only transient failures. Context cancellation stops the loop.
func (s *s3Store) withRetry(ctx context.Context, opName, key string, op func(ctx context.Context) error) error {
	backoff := s.initialBackoff

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt == s.maxAttempts {
			return fmt.Errorf("%s %s: %w", opName, key, err)
		}

		s.logger.Warn().Err(err).Str("op", opName).Str("key", key).Int("attempt", attempt).Msg("transient object store error, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return err
}

// isTransient reports whether an S3 error is worth retrying: server-side
// 5xx-class API errors and plain transport failures. NotFound, access and
// validation errors are final.
func isTransient(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InternalError", "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return true
		default:
			return false
		}
	}
	// No API error code at all: connection reset, DNS, timeouts.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// mapNotFound converts the SDK's missing-key errors to [ErrNotFound] and
// wraps everything else with the key for context.
func mapNotFound(key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return fmt.Errorf("get %s: %w", key, err)
}

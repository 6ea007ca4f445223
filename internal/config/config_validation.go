// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/base64"
	"encoding/json"
)

// Defaults applied to fields left unset by every configuration source.
const (
	defaultMaxUploadBytes      = 100 << 20
	defaultSessionIdleSeconds  = 1800
	defaultSessionSweepSeconds = 300
	defaultConsumerDurable     = "file_processor"
	defaultConsumerWorkers     = 1
)

const masterKeyLength = 32

// applyDefaults fills in defaults for fields that no source populated.
// It runs after the merge and before validation, so explicit zero-adjacent
// values from any source are preserved.
func (cfg *StructuredConfig) applyDefaults() {
	if cfg.App.MaxUploadBytes == 0 {
		cfg.App.MaxUploadBytes = defaultMaxUploadBytes
	}

	if cfg.Session.IdleSeconds == 0 {
		cfg.Session.IdleSeconds = defaultSessionIdleSeconds
	}
	if cfg.Session.SweepSeconds == 0 {
		cfg.Session.SweepSeconds = defaultSessionSweepSeconds
	}

	if cfg.Consumer.Durable == "" {
		cfg.Consumer.Durable = defaultConsumerDurable
	}
	if cfg.Consumer.Workers == 0 {
		cfg.Consumer.Workers = defaultConsumerWorkers
	}
	if cfg.Consumer.Sink == "" {
		cfg.Consumer.Sink = SinkFile
	}

	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = CredentialsStatic
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// The master key error deliberately carries no detail about the provided
// value.
func (cfg *StructuredConfig) validate() error {
	key, err := base64.StdEncoding.DecodeString(cfg.App.MasterKey)
	if cfg.App.MasterKey == "" || err != nil || len(key) != masterKeyLength {
		return ErrInvalidMasterKey
	}

	if cfg.ObjectStore.Bucket == "" {
		return ErrInvalidObjectStoreConfigs
	}

	if cfg.EventBus.URL == "" {
		return ErrInvalidEventBusConfigs
	}

	switch cfg.Credentials.Backend {
	case CredentialsStatic:
		if cfg.Credentials.StaticJSON == "" {
			return ErrInvalidCredentialsConfigs
		}
		table := make(map[string]string)
		if err := json.Unmarshal([]byte(cfg.Credentials.StaticJSON), &table); err != nil || len(table) == 0 {
			return ErrInvalidCredentialsConfigs
		}
	case CredentialsPostgres:
		if cfg.Credentials.DSN == "" {
			return ErrInvalidCredentialsConfigs
		}
	default:
		return ErrInvalidCredentialsConfigs
	}

	switch cfg.Consumer.Sink {
	case SinkFile:
		if cfg.Consumer.OutputDir == "" {
			return ErrInvalidConsumerConfigs
		}
	case SinkHTTP:
		if cfg.Consumer.Endpoint == "" {
			return ErrInvalidConsumerConfigs
		}
	default:
		return ErrInvalidConsumerConfigs
	}

	return nil
}

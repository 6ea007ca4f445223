// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package session implements bearer-session issuance and validation for the
// ingest API. Tokens are opaque random strings held server-side; there is
// nothing to decode and nothing to forge offline.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/models"
)

// tokenBytes is the entropy of a session token before encoding. 32 bytes
// keeps guessing infeasible at any realistic request rate.
const tokenBytes = 32

// Registry issues, validates and revokes sessions. All methods are safe for
// concurrent use.
type Registry interface {
	// Create issues a fresh session for principal.
	Create(principal string) (models.Session, error)

	// Validate checks token and, on success, extends the idle deadline.
	// Every failure is [ErrInvalidSession].
	Validate(token string) (models.Session, error)

	// Destroy revokes token. Revoking an unknown token is a no-op.
	Destroy(token string)

	// Sweep drops every session idle past the TTL and reports how many.
	Sweep() int
}

type registry struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRegistry returns an empty in-memory [Registry] with the given idle TTL.
func NewRegistry(idleTTL time.Duration) Registry {
	return &registry{
		sessions: make(map[string]*models.Session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (r *registry) Create(principal string) (models.Session, error) {
	token, err := newToken()
	if err != nil {
		return models.Session{}, err
	}

	now := r.now()
	s := &models.Session{
		Token:      token,
		Principal:  principal,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = s
	return *s, nil
}

func (r *registry) Validate(token string) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return models.Session{}, ErrInvalidSession
	}

	now := r.now()
	if now.Sub(s.LastSeenAt) > r.idleTTL {
		// Expired sessions are removed on sight, not only by the sweeper.
		delete(r.sessions, token)
		return models.Session{}, ErrInvalidSession
	}

	s.LastSeenAt = now
	return *s, nil
}

func (r *registry) Destroy(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}

func (r *registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	swept := 0
	for token, s := range r.sessions {
		if now.Sub(s.LastSeenAt) > r.idleTTL {
			delete(r.sessions, token)
			swept++
		}
	}
	return swept
}

// newToken returns a URL-safe random token. The raw bytes never leave this
// function; only the encoded form is stored and compared.
func newToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Sweeper is a background worker that periodically evicts idle sessions.
type Sweeper struct {
	registry Registry
	interval time.Duration
	logger   *logger.Logger
}

// NewSweeper builds a [Sweeper] over registry firing every interval.
func NewSweeper(registry Registry, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{registry: registry, interval: interval, logger: log}
}

// Run starts the sweep loop in a background goroutine and returns.
func (w *Sweeper) Run() {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for range ticker.C {
			if swept := w.registry.Sweep(); swept > 0 {
				w.logger.Debug().Int("swept", swept).Msg("idle sessions evicted")
			}
		}
	}()
}

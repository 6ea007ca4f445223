package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-audio-vault/internal/credentials"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/session"
	"github.com/MKhiriev/go-audio-vault/models"
)

type authService struct {
	credentials credentials.Provider
	sessions    session.Registry

	logger *logger.Logger
}

// NewAuthService constructs an [AuthService] over the credential provider
// and the session registry.
func NewAuthService(provider credentials.Provider, sessions session.Registry, logger *logger.Logger) AuthService {
	return &authService{
		credentials: provider,
		sessions:    sessions,
		logger:      logger,
	}
}

func (a *authService) ValidatePassphrase(ctx context.Context, passphrase string) (models.Session, error) {
	log := logger.FromContext(ctx)

	if passphrase == "" {
		return models.Session{}, ErrAuthFailure
	}

	principal, err := a.credentials.Resolve(ctx, passphrase)
	if err != nil {
		if errors.Is(err, credentials.ErrUnknownCredentials) {
			return models.Session{}, ErrAuthFailure
		}
		log.Err(err).Str("func", "*authService.ValidatePassphrase").Msg("error: credential resolution failed")
		return models.Session{}, err
	}

	s, err := a.sessions.Create(principal)
	if err != nil {
		log.Err(err).Str("func", "*authService.ValidatePassphrase").Msg("error: session creation failed")
		return models.Session{}, err
	}

	log.Info().Str("principal", principal).Msg("session issued")
	return s, nil
}

func (a *authService) Logout(ctx context.Context, token string) {
	a.sessions.Destroy(token)
	logger.FromContext(ctx).Debug().Msg("session revoked")
}

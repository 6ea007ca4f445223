package http

import (
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/service"
	"github.com/MKhiriev/go-audio-vault/internal/session"
)

type Handler struct {
	services *service.Services
	sessions session.Registry

	maxUploadBytes int64

	logger *logger.Logger
}

func NewHandler(services *service.Services, sessions session.Registry, maxUploadBytes int64, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		sessions:       sessions,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

package service

import (
	"github.com/MKhiriev/go-audio-vault/internal/bus"
	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/credentials"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/session"
	"github.com/MKhiriev/go-audio-vault/internal/store"
)

type Services struct {
	AuthService   AuthService
	IngestService IngestService
	VaultService  VaultService
}

func NewServices(objects store.ObjectStore, events bus.EventBus, provider credentials.Provider, sessions session.Registry, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService:   NewAuthService(provider, sessions, logger),
		IngestService: NewIngestService(objects, events, provider, cfg.App.MasterKeyBytes(), cfg.Ingest.VerifyOuter, logger),
		VaultService:  NewVaultService(objects, logger),
	}
}

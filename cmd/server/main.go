package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-audio-vault/internal/bus"
	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/credentials"
	handlerhttp "github.com/MKhiriev/go-audio-vault/internal/handler/http"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/server"
	"github.com/MKhiriev/go-audio-vault/internal/service"
	"github.com/MKhiriev/go-audio-vault/internal/session"
	"github.com/MKhiriev/go-audio-vault/internal/store"
	"github.com/MKhiriev/go-audio-vault/internal/workers"
	"github.com/MKhiriev/go-audio-vault/migrations"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("vault-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	// Secrets stay out of the logs: only topology fields are echoed back.
	log.Debug().
		Str("address", cfg.Server.HTTPAddress).
		Str("bucket", cfg.ObjectStore.Bucket).
		Str("event_bus", cfg.EventBus.URL).
		Str("credentials_backend", cfg.Credentials.Backend).
		Bool("verify_outer", cfg.Ingest.VerifyOuter).
		Msg("received configs")

	ctx := context.Background()

	objects, err := store.NewS3Store(ctx, cfg.ObjectStore, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating object store")
	}

	events, err := bus.NewJetStreamBus(cfg.EventBus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting event bus")
	}
	defer events.Close()

	provider, err := newCredentialsProvider(ctx, cfg.Credentials, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating credentials provider")
	}

	sessions := session.NewRegistry(cfg.Session.IdleTTL())
	services := service.NewServices(objects, events, provider, sessions, *cfg, log)

	handler := handlerhttp.NewHandler(services, sessions, cfg.App.MaxUploadBytes, log)

	workers.NewWorkers(
		session.NewSweeper(sessions, cfg.Session.SweepInterval(), log),
	).Run()

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func newCredentialsProvider(ctx context.Context, cfg config.Credentials, log *logger.Logger) (credentials.Provider, error) {
	switch cfg.Backend {
	case config.CredentialsPostgres:
		db, err := credentials.NewConnectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := migrations.Migrate(db.DB); err != nil {
			return nil, err
		}
		return credentials.NewPostgresProvider(db, log), nil
	default:
		return credentials.NewStaticProvider(cfg.StaticTable()), nil
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}

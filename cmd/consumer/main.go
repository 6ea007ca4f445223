package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-audio-vault/internal/bus"
	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/consumer"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("vault-consumer")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().
		Str("bucket", cfg.ObjectStore.Bucket).
		Str("event_bus", cfg.EventBus.URL).
		Str("durable", cfg.Consumer.Durable).
		Str("sink", cfg.Consumer.Sink).
		Int("workers", cfg.Consumer.Workers).
		Msg("received configs")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	objects, err := store.NewS3Store(ctx, cfg.ObjectStore, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating object store")
	}

	events, err := bus.NewJetStreamBus(cfg.EventBus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting event bus")
	}
	defer events.Close()

	processor := newProcessor(cfg.Consumer, log)
	masterKey := cfg.App.MasterKeyBytes()

	for i := 0; i < cfg.Consumer.Workers; i++ {
		worker, err := consumer.NewConsumer(events, objects, processor, masterKey, cfg.Consumer.Durable, log)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating consumer worker")
		}
		worker.Start(ctx)
	}

	<-ctx.Done()
	log.Info().Msg("consumer shutdown gracefully")
}

func newProcessor(cfg config.Consumer, log *logger.Logger) consumer.Processor {
	if cfg.Sink == config.SinkHTTP {
		return consumer.NewHTTPProcessor(cfg.Endpoint, log)
	}
	return consumer.NewFileProcessor(cfg.OutputDir, log)
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

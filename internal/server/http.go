package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
)

// Generous timeouts: uploads stream up to the configured body limit and the
// ingest pipeline re-encrypts before responding.
const (
	httpReadTimeout  = 5 * time.Minute
	httpWriteTimeout = 5 * time.Minute
	httpIdleTimeout  = 2 * time.Minute
)

type httpServer struct {
	server *http.Server
}

func newHTTPServer(handler http.Handler, cfg config.Server, log *logger.Logger) *httpServer {
	log.Info().Str("address", cfg.HTTPAddress).Msg("creating HTTP server")
	return &httpServer{
		server: &http.Server{
			Addr:         cfg.HTTPAddress,
			Handler:      handler,
			ReadTimeout:  httpReadTimeout,
			WriteTimeout: httpWriteTimeout,
			IdleTimeout:  httpIdleTimeout,
		},
	}
}

func (h *httpServer) RunServer() {
	if err := h.server.ListenAndServe(); err != nil {
		fmt.Printf("HTTP server ListenAndServe: %v\n", err)
	}
}

func (h *httpServer) Shutdown() {
	if err := h.server.Shutdown(context.Background()); h.server != nil && err != nil {
		fmt.Printf("HTTP server Shutdown: %v\n", err)
	}
}

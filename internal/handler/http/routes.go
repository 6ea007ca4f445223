package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/validate-passphrase", h.validatePassphrase)
	})

	// routes behind a bearer session
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/api/upload", h.upload)
		r.Get("/api/files", h.listFiles)
		r.Delete("/api/files", h.deleteFiles)
		r.Post("/api/logout", h.logout)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}

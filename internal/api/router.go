// Package api exposes the validation lifecycle over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP surface for the validation service.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/business-validations", func(r chi.Router) {
		r.Post("/", h.CreateAndAnalyze)
		r.Get("/", h.List)
		r.Post("/quick", h.CreateQuick)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/analyze", h.Analyze)
		r.Post("/{id}/download", h.Download)
	})

	r.Post("/leads", h.CaptureLead)

	return r
}

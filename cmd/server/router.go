package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wordgrove/wordgrove-api/internal/api"
	apiMiddleware "github.com/wordgrove/wordgrove-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.tokenService, app.keyVerifier, app.config.Auth.APIKeyHash)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenService)

	encounterHandler := api.NewEncounterHandler(app.engine)
	scanHandler := api.NewScanHandler(app.engine)
	vocabHandler := api.NewVocabHandler(app.engine)
	noiseHandler := api.NewNoiseHandler(app.engine)
	reviewHandler := api.NewReviewHandler(app.engine)
	adminHandler := api.NewAdminHandler(app.engine)
	commandHandler := api.NewCommandHandler(app.engine)

	r.Route("/api", func(r chi.Router) {
		// Token issuance (public)
		r.Post("/auth/token", authHandler.Token)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/encounters", encounterHandler.Record)
			r.Delete("/encounters/{id}", encounterHandler.Delete)

			r.Post("/scan", scanHandler.Scan)

			r.Post("/vocabulary", vocabHandler.Create)
			r.Get("/vocabulary", vocabHandler.List)
			r.Get("/vocabulary/{id}", vocabHandler.Get)
			r.Delete("/vocabulary/{id}", vocabHandler.Delete)
			r.Post("/vocabulary/{id}/rate", vocabHandler.Rate)
			r.Post("/vocabulary/{id}/trace", vocabHandler.Trace)
			r.Post("/vocabulary/{id}/unlock", vocabHandler.Unlock)

			r.Post("/noise/sync", noiseHandler.Sync)

			r.Post("/review/cards", reviewHandler.Draw)

			r.Post("/admin/cleanup", adminHandler.Cleanup)
			r.Post("/admin/seed", adminHandler.Seed)

			r.Post("/commands", commandHandler.Execute)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

// Package router sets up the HTTP routes and middleware chains for the
// caroumate API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caroumate/internal/handlers"
	"caroumate/internal/middleware"
)

// New creates and returns the configured Chi router. limiter throttles
// the generation routes; nil disables throttling.
func New(api *handlers.API, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request. Logger wraps Recoverer
	// so recovered panics are logged with their 500.
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)

	// Health check and metrics: no user.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		// Calls to the generation service.
		generation := func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
		}

		r.Route("/carousel", func(r chi.Router) {
			r.Get("/", api.Current)
			r.Get("/preview", api.Preview)
			r.Patch("/preferences", api.UpdatePreferences)
			r.Post("/brand-kit", api.ApplyBrandKit)
			r.Post("/export", api.Export)
			r.Post("/visual", api.UploadCarouselVisual)
			r.Delete("/visual", api.RemoveCarouselVisual)
			r.Post("/close", api.Close)

			r.Group(func(r chi.Router) {
				generation(r)
				r.Post("/generate", api.Generate)
				r.Post("/design-suggestion", api.DesignSuggestion)
				r.Post("/images", api.GenerateAllImages)
				r.Post("/caption", api.Caption)
				r.Post("/thread", api.Thread)
				r.Post("/share", api.Share)
				r.Post("/assist", api.Assist)
			})
		})

		r.Route("/slides", func(r chi.Router) {
			r.Delete("/overrides/{field}", api.ClearOverrides)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", api.UpdateSlide)
				r.Post("/move", api.MoveSlide)
				r.Post("/visual", api.UploadSlideVisual)
				r.Delete("/visual", api.RemoveSlideVisual)

				r.Group(func(r chi.Router) {
					generation(r)
					r.Post("/image", api.GenerateImage)
					r.Post("/video", api.GenerateVideo)
					r.Post("/edit", api.EditImage)
					r.Post("/regenerate", api.RegenerateContent)
				})
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", api.History)
			r.Delete("/", api.ClearHistory)
			r.Post("/{id}/open", api.OpenHistory)
			r.Delete("/{id}", api.DeleteHistory)
		})

		r.Get("/settings", api.Settings)
		r.Put("/settings", api.SaveSettings)
		r.Get("/profile", api.Profile)
		r.Put("/profile", api.SaveProfile)
		r.Get("/stats", api.Stats)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

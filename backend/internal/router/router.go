package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/imagestore/backend/internal/setup"
	mw "github.com/itchan-dev/imagestore/shared/middleware"
	"github.com/itchan-dev/imagestore/shared/middleware/metrics"
)

// New creates and configures a chi router with all the routes.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()
	cfg := deps.Config

	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.RequestLogger)

	// setup CORS for browser clients
	if len(cfg.Public.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Public.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Use(mw.SecurityHeaders(cfg.Public.SecureHeaders))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/images", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.UploadLimiter != nil {
				r.Use(mw.RateLimit(deps.UploadLimiter, mw.GetIP))
			}
			r.Post("/upload", h.UploadImage)
		})
		r.Get("/download/{id}", h.DownloadImage)
		r.Delete("/remove/{id}", h.RemoveImage)
	})

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sujal/maths-tabel-server/internal/api/handlers"
	"github.com/sujal/maths-tabel-server/internal/api/middleware"
	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/metrics"
	"github.com/sujal/maths-tabel-server/internal/service"
)

const maxBodyBytes = 50 * 1024

func NewRouter(services *service.Services, limiters *middleware.Limiters, collector *metrics.Collector, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.NewCORS(cfg.CORSOrigins))
	r.Use(middleware.Metrics(collector))
	r.Use(chiMiddleware.RequestSize(maxBodyBytes))

	r.Get("/metrics", collector.Handler().ServeHTTP)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, cfg)
	adminHandler := handlers.NewAdminHandler(services.Admin)

	r.Route("/api", func(r chi.Router) {
		r.Use(limiters.Global.Middleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limiters.Auth.Middleware)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})

			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(services.Auth, cfg.CookieName))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(services.Auth, cfg.CookieName))
			r.Use(middleware.RequireAdmin)
			r.Use(limiters.Admin.Middleware)

			r.Get("/pending", adminHandler.Pending)
			r.Get("/overview", adminHandler.Overview)
			r.Post("/approve", adminHandler.Approve)
			r.Post("/password", adminHandler.ChangePassword)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Route not found."}`))
	})

	return r
}

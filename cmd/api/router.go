package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/itam/internal/config"
	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/handlers"
	"github.com/crucial707/itam/internal/middleware"
	"github.com/crucial707/itam/internal/workflow"
)

// pinger is the part of the gateway the readiness probe needs.
type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(gw pinger, svc *workflow.Service, cfg config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.Prometheus)
	r.Use(middleware.Headers(middleware.HeaderPolicy{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		HSTS:           cfg.TLSCertFile != "" && cfg.TLSKeyFile != "",
	}))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := gw.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", "error", err)
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	tickets := &handlers.MaintenanceHandler{Svc: svc, Log: logger}
	assets := &handlers.AssetHandler{Svc: svc, Log: logger}
	emails := &handlers.EmailHandler{Svc: svc, Log: logger}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.PerMinute(cfg.RateLimitPerMinute).Middleware)

		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", tickets.ListTickets)
			r.Post("/", tickets.CreateTicket)
			r.Get("/{id}", tickets.GetTicket)
			r.Put("/{id}", tickets.UpdateTicket)
			r.Delete("/{id}", tickets.DeleteTicket)
			r.Post("/{id}/start", tickets.StartTicket)
			r.Post("/{id}/complete", tickets.CompleteTicket)
			r.Get("/{id}/history", tickets.TicketHistory)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/next-code", assets.NextCode)
			r.Get("/", assets.ListAssets)
			r.Post("/", assets.CreateAsset)
			r.Get("/{id}", assets.GetAsset)
			r.Put("/{id}", assets.UpdateAsset)
			r.Delete("/{id}", assets.DeleteAsset)
		})

		r.Route("/emails", func(r chi.Router) {
			r.Get("/", emails.ListEmails)
			r.Post("/", emails.RegisterEmail)
			r.Get("/{id}", emails.GetEmail)
			r.Put("/{id}", emails.UpdateEmail)
			r.Delete("/{id}", emails.DeleteEmail)
		})
	})

	return r
}

// ensure the gateway satisfies the probe interface
var _ pinger = (*db.Gateway)(nil)

// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package api provides the HTTP trigger surface using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fanpulse-io/fanpulse/internal/config"
	"github.com/fanpulse-io/fanpulse/internal/logging"
)

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
}

// NewRouter builds the HTTP surface.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))

		r.Post("/ingest", router.handler.IngestFleet)
		r.Post("/ingest/{entityID}", router.handler.IngestEntity)
		r.Post("/ingest/{entityID}/{platform}", router.handler.IngestPlatform)
		r.Post("/trends/collect", router.handler.CollectTrends)

		r.Get("/entities", router.handler.Entities)
		r.Get("/status", router.handler.Status)
	})

	return r
}

// requestLogging emits one structured log line per request.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	})
}

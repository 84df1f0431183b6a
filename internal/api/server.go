// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/monova/internal/auth"
	"github.com/taibuivan/monova/internal/cph"
	"github.com/taibuivan/monova/internal/platform/config"
	"github.com/taibuivan/monova/internal/platform/constants"
	"github.com/taibuivan/monova/internal/platform/middleware"
	"github.com/taibuivan/monova/internal/platform/respond"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Cph handles the competitive programming problem catalogue.
	Cph *cph.Handler
}

// Middlewares groups the stateful middleware the server chain needs.
type Middlewares struct {
	// RateLimiter throttles clients per IP.
	RateLimiter *middleware.RateLimiter

	// Tracker persists the request audit trail.
	Tracker func(http.Handler) http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, gates *auth.Gates, mw Middlewares, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(mw.RateLimiter.Middleware())
	r.Use(middleware.Exceptions())
	r.Use(mw.Tracker)
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/", rootInfo(cfg))
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # API Documentation
	// The route inventory sits behind HTTP basic auth.
	r.Group(func(docs chi.Router) {
		docs.Use(middleware.DocsBasicAuth(cfg.DocUsername, cfg.DocPassword))
		docs.Get("/docs", docsIndex(r))
	})

	// # Application API
	// Domain-specific route groups mounted behind their gates.
	r.Route("/cph", func(api chi.Router) {
		api.Use(gates.Entity.Require())
		api.Mount("/", h.Cph.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// rootInfo handles GET / with a minimal service banner.
//
// The tracker skips this path, so orchestrator pings stay out of the audit
// trail.
func rootInfo(cfg *config.Config) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{
			"service":     constants.ServiceName,
			"environment": cfg.Environment,
		})
	}
}

// docsIndex handles GET /docs with the live route inventory.
func docsIndex(router *chi.Mux) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		type routeEntry struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		}

		routes := make([]routeEntry, 0, 16)
		_ = chi.Walk(router, func(method, path string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			routes = append(routes, routeEntry{Method: method, Path: path})
			return nil
		})

		respond.OK(writer, map[string]any{
			"service": constants.ServiceName,
			"routes":  routes,
		})
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}

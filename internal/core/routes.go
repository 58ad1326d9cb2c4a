package core

import (
	"github.com/go-chi/chi/v5"
)

// defaultRedactedHeaders lists header names whose values are masked in request
// logs to prevent accidental leakage of credentials.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes defines the top-level routing hierarchy.
// It registers the global middleware chain, the versioned API group, and the
// health endpoint.
//
// Middleware ordering:
//  1. Recoverer     - outermost so all panics are caught.
//  2. RequestID     - correlation ID before anything logs.
//  3. RequestLogger - structured request logging.
//  4. Metrics       - request latency and count recording.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(s.MetricsMiddleware)

	s.router.Route("/v1", s.mountV1)

	s.router.Get("/health", s.HandleHealth)
}

// mountV1 registers all v1 endpoints via the registrars populated by the
// application entrypoint.
func (s *Server) mountV1(r chi.Router) {
	for _, registrar := range s.V1RouteRegistrars {
		registrar(r)
	}
}

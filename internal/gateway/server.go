package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routes constructs the chi mux with all endpoints wired.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Public.
	r.Get("/health", s.handleHealth())
	r.Get("/metrics", s.metrics.Handler().ServeHTTP)

	// Message intake. Authentication is the deployment's concern; the
	// gateway binds to loopback by default.
	r.Post("/v1/messages", s.handleMessage())

	// Admin endpoints. Not mounted without an auth token.
	if s.cfg.AuthToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.cfg.AuthToken))
			r.Get("/status", s.handleStatus())
			r.Post("/v1/memory", s.handleRememberMemory())
			r.Delete("/v1/memory/{username}", s.handleForgetMemory())
			r.Post("/conversations/{id}/reset", s.handleResetConversation())
			r.Post("/config/reload", s.handleReloadConfig())
		})
	}

	return r
}

package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/capture-kit/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Faces
		r.Get("/faces", s.faces.List)
		r.Post("/faces/match", s.faces.Match)
		r.Get("/faces/{id}", s.faces.Get)
		r.Put("/faces/{id}/label", s.faces.SetLabel)

		// Stats
		r.Get("/stats", s.faces.Stats)
	})
}

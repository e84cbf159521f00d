package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-id/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	recognizeHandler := handlers.NewRecognizeHandler(s.model, s.threshold)
	modelHandler := handlers.NewModelHandler(s.model)
	similarHandler := handlers.NewSimilarHandler(s.model, s.index)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/model", modelHandler.Stats)
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Post("/similar", similarHandler.Similar)
	})
}

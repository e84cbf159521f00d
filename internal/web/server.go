// Package web exposes a trained model over HTTP: health, model stats,
// recognition of uploaded images, and gallery similarity search.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/face-id/internal/eigenface"
	"github.com/kozaktomas/face-id/internal/gallery"
)

// Server serves recognition requests against one loaded model. The model
// is immutable, so request handlers share it without locking.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	model      *eigenface.Model
	index      *gallery.Index
	threshold  float64
}

// NewServer creates a web server over a trained model. The index may be
// nil; the similarity endpoint then responds 503.
func NewServer(model *eigenface.Model, index *gallery.Index, threshold float64, host string, port int) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		model:     model,
		index:     index,
		threshold: threshold,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

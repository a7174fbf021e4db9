// Package web serves the dashboard API over chi. Reads are answered
// from the engine's record store; roster and settings writes are
// proxied to the attendance backend.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/waheeda129/face-attendance/internal/config"
	"github.com/waheeda129/face-attendance/internal/engine"
	"github.com/waheeda129/face-attendance/internal/web/handlers"
	"github.com/waheeda129/face-attendance/internal/web/middleware"
)

// Server represents the dashboard API server.
type Server struct {
	coordinator *engine.Coordinator
	history     handlers.AttendanceHistory
	router      *chi.Mux
	httpServer  *http.Server
}

// NewServer creates the dashboard API server over a coordinator.
// history is the optional reporting archive; nil disables the all-time
// stats field.
func NewServer(coordinator *engine.Coordinator, defaults config.Defaults, host string, port int, history handlers.AttendanceHistory) *Server {
	r := chi.NewRouter()

	s := &Server{
		coordinator: coordinator,
		history:     history,
		router:      r,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(defaults)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for the SSE stream
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting dashboard server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down dashboard server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

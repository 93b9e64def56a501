// Package server exposes the training manager over HTTP: start a run, watch
// its progress, stop it. One run at a time, like the manager beneath it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DR-lin-eng/yologui/internal/config"
	"github.com/DR-lin-eng/yologui/pkg/manager"
)

// Server is the HTTP front of the training manager.
type Server struct {
	host    string
	port    int
	mgr     *manager.Manager
	trainer config.TrainerConfig
	logger  *zap.Logger
	router  chi.Router
}

// New builds the server and its routes.
func New(host string, port int, mgr *manager.Manager, trainer config.TrainerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{host: host, port: port, mgr: mgr, trainer: trainer, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.handleStartRun)
		r.Route("/runs/current", func(r chi.Router) {
			r.Get("/", s.handleCurrentRun)
			r.Post("/stop", s.handleStopRun)
			r.Get("/events", s.handleEvents)
		})
	})
	s.router = r
	return s
}

// Handler returns the route tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured bind address.
func (s *Server) Addr() string { return fmt.Sprintf("%s:%d", s.host, s.port) }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and cancels any in-flight training run.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("api server listening", zap.String("addr", s.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.mgr.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Package server exposes the orchestrator's operations over an HTTP JSON
// API, authenticated with a shared API key.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sparkops/sparkjobd/internal/jobs"
	"github.com/sparkops/sparkjobd/internal/tlsconfig"
)

// Options configures the HTTP surface.
type Options struct {
	Addr        string
	APIKey      string
	CORSOrigins []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// TLSCertPath/TLSKeyPath enable HTTPS when both are set; ClientCAPath
	// additionally requires verified client certificates.
	TLSCertPath  string
	TLSKeyPath   string
	ClientCAPath string
}

// Server serves the job API.
type Server struct {
	orchestrator *jobs.Orchestrator
	logger       *zap.Logger
	opts         Options
	httpServer   *http.Server
}

// New creates a Server around the orchestration facade.
func New(orchestrator *jobs.Orchestrator, logger *zap.Logger, opts Options) *Server {
	return &Server{
		orchestrator: orchestrator,
		logger:       logger,
		opts:         opts,
	}
}

// Handler builds the route tree. Exposed separately from Start so tests can
// drive the API through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{apiKeyHeader, "Content-Type"},
		AllowCredentials: true,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, codeNotFound, "resource not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/jobs", func(r chi.Router) {
		r.Use(apiKeyAuth(s.opts.APIKey))

		r.Post("/submit", s.handleSubmit)
		r.Get("/{jobID}", s.handleStatus)
		r.Get("/{jobID}/result", s.handleResult)
		r.Get("/{jobID}/logs", s.handleLogs)
	})

	return r
}

// Start serves until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	var err error
	if s.opts.TLSCertPath != "" && s.opts.TLSKeyPath != "" {
		s.httpServer.TLSConfig, err = tlsconfig.Setup(&tlsconfig.Config{
			CertPath: s.opts.TLSCertPath,
			KeyPath:  s.opts.TLSKeyPath,
			CAPath:   s.opts.ClientCAPath,
			Server:   true,
		})
		if err != nil {
			return err
		}

		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown stops accepting new requests and waits for in-flight ones, up to
// ctx's deadline. Running jobs are not drained; their records simply stop
// being updated when the process exits.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

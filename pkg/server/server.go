// Package server exposes the layout pipeline over HTTP.
//
// # Routes
//
//	POST /v1/layouts                             run a layout, returns the stored record
//	GET  /v1/layouts                             list recent runs (?limit=N, default 20)
//	GET  /v1/layouts/{id}                        fetch a run
//	GET  /v1/layouts/{id}/artifacts/{format}     fetch a rendered artifact
//	GET  /healthz                                liveness and build info
//
// A POST body carries the scenario in the JSON scenario format and optional
// pipeline options:
//
//	{"scenario": {"host": ..., "guest": ..., "gamma": ...},
//	 "options": {"formats": ["svg", "json"], "gamma": true}}
//
// Errors are JSON objects {"error": CODE, "message": TEXT}. Invalid input
// maps to 400, unknown ids to 404, and layout inconsistencies to 422.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/reconlayout/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 4 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultListLimit       = 20
)

// Config holds server settings. It is decoded from the [server] table of
// the CLI config file.
type Config struct {
	Addr            string        `toml:"addr"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// SetDefaults fills in zero fields.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	store  Store
	logger *log.Logger
	router chi.Router
	now    func() time.Time
}

// New builds a server. A nil store means a [MemoryStore].
func New(cfg Config, runner *pipeline.Runner, store Store, logger *log.Logger) *Server {
	cfg.SetDefaults()
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/layouts", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/artifacts/{format}", s.handleArtifact)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

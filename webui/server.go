// Package webui exposes the generator to the browser front end over a local
// HTTP API: submission, preview edits, undo/redo, saved history, share
// tokens, and credential settings.
package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pagegen/appstate"
	"pagegen/core"
	"pagegen/history"
	"pagegen/logging"
	"pagegen/metrics"

	"go.uber.org/zap"
)

// Server is the HTTP server wiring the API handlers together.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	api        *API
	logger     *logging.Logger
	port       int
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Port to listen on
	Port int
	// Host to bind to (default "localhost"; the API is local-first)
	Host string
	// ReadTimeout for incoming requests (default 30s; submissions carry
	// base64 photos)
	ReadTimeout time.Duration
	// WriteTimeout for responses (default 10m; generate holds the request
	// open for the whole pipeline run)
	WriteTimeout time.Duration
	// StaticDir is the front-end asset directory served at /
	// (default "webui/static")
	StaticDir string
}

// NewServer creates the server around the assembled core components.
func NewServer(cfg ServerConfig, machine *appstate.Machine, timeline *history.Timeline, saved *history.Service, credentials *core.CredentialStore, stats *metrics.Store, logger *logging.Logger) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "webui/static"
	}

	api := NewAPI(machine, timeline, saved, credentials, stats, logger)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	serverLogger := logger.Named("webui")
	handler := NewLoggingMiddleware(serverLogger).Wrap(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		mux:    mux,
		api:    api,
		logger: serverLogger,
		port:   cfg.Port,
	}
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("web API listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("web API shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Package api exposes the tracker and counter store over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/sitetime/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
}

// Server represents the API HTTP server.
type Server struct {
	config   Config
	tracker  Tracker
	store    storage.Store
	reporter Summarizer
	server   *http.Server
	router   *mux.Router
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, t Tracker, store storage.Store, reporter Summarizer, logger zerolog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		config:   cfg,
		tracker:  t,
		store:    store,
		reporter: reporter,
		router:   router,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	// Request contexts derive from baseCtx, which is cancelled as soon as
	// Shutdown starts so open event streams end.
	baseCtx, cancel := context.WithCancel(context.Background())
	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	s.server.RegisterOnShutdown(cancel)

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(CORSMiddleware(s.config.AllowedOrigins))

	events := NewEventHandler(s.tracker, s.logger)
	tracking := NewTrackingHandler(s.tracker, s.logger)
	counters := NewCounterHandler(s.store.Counters(), s.logger)
	settings := NewSettingsHandler(s.store.Settings(), s.logger)
	summary := NewSummaryHandler(s.reporter, s.logger)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/events/focus", events.Focus).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/events/navigation", events.Navigation).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/events/idle", events.Idle).Methods(http.MethodPost, http.MethodOptions)

	v1.HandleFunc("/tracking", tracking.Get).Methods(http.MethodGet)
	v1.HandleFunc("/tracking", tracking.Set).Methods(http.MethodPut, http.MethodOptions)
	v1.HandleFunc("/tracking/stream", tracking.Stream).Methods(http.MethodGet)
	v1.HandleFunc("/state", tracking.State).Methods(http.MethodGet)

	// "today" is registered before the domain pattern so it is not read as a domain.
	v1.HandleFunc("/counters", counters.List).Methods(http.MethodGet)
	v1.HandleFunc("/counters", counters.ResetAll).Methods(http.MethodDelete, http.MethodOptions)
	v1.HandleFunc("/counters/today", counters.ListToday).Methods(http.MethodGet)
	v1.HandleFunc("/counters/today", counters.ResetToday).Methods(http.MethodDelete, http.MethodOptions)
	v1.HandleFunc("/counters/{domain}", counters.Get).Methods(http.MethodGet)
	v1.HandleFunc("/counters/{domain}", counters.Reset).Methods(http.MethodDelete, http.MethodOptions)

	v1.HandleFunc("/settings", settings.Get).Methods(http.MethodGet)
	v1.HandleFunc("/settings", settings.Update).Methods(http.MethodPut, http.MethodOptions)

	v1.HandleFunc("/summary", summary.Get).Methods(http.MethodGet)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping API server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}

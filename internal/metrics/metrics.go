package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Time accounting metrics
	CommittedSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetime_committed_seconds_total",
			Help: "Total seconds committed to the counter store",
		},
		[]string{"domain"},
	)

	Flushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetime_flushes_total",
			Help: "Total session flushes by trigger",
		},
		[]string{"reason"},
	)

	CommitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitetime_commit_errors_total",
			Help: "Counter store writes that failed and were dropped",
		},
	)

	IgnoredURLs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetime_ignored_urls_total",
			Help: "Focused URLs that produced no trackable domain",
		},
		[]string{"reason"},
	)

	TrackingEnabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitetime_tracking_enabled",
			Help: "Whether time tracking is enabled (1) or paused (0)",
		},
	)

	// Event metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetime_events_total",
			Help: "Total tracker events processed",
		},
		[]string{"type"},
	)

	EventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitetime_event_duration_seconds",
			Help:    "Tracker event handling duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"type"},
	)

	// Classification metrics
	Classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetime_classifications_total",
			Help: "Total domain classifications by category",
		},
		[]string{"category"},
	)

	ClassifierCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitetime_classifier_cache_hits_total",
			Help: "Classifier cache hits",
		},
	)

	ClassifierCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitetime_classifier_cache_misses_total",
			Help: "Classifier cache misses",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		CommittedSeconds,
		Flushes,
		CommitErrors,
		IgnoredURLs,
		TrackingEnabled,
		EventsTotal,
		EventDuration,
		Classifications,
		ClassifierCacheHits,
		ClassifierCacheMisses,
	)
}

// HealthFunc reports whether the service is healthy.
type HealthFunc func(ctx context.Context) error

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server. health may be nil.
func NewServer(addr string, health HealthFunc, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "metrics").Logger()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				logger.Warn().Err(err).Msg("Health check failed")
				http.Error(w, "UNHEALTHY", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler serving /metrics and /health.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Shutdown(ctx)
}

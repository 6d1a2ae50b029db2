package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/sitetime/internal/api"
	"github.com/goodtune/sitetime/internal/classify"
	"github.com/goodtune/sitetime/internal/config"
	"github.com/goodtune/sitetime/internal/metrics"
	"github.com/goodtune/sitetime/internal/report"
	"github.com/goodtune/sitetime/internal/storage"
	"github.com/goodtune/sitetime/internal/storage/bolt"
	"github.com/goodtune/sitetime/internal/storage/redis"
	"github.com/goodtune/sitetime/internal/systemd"
	"github.com/goodtune/sitetime/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds each step of the graceful shutdown.
const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start sitetime server",
	Long:  `Start the sitetime server with the extension API, the activity tracker, the daily reset scheduler and the metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting sitetime")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get systemd listeners")
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Str("redis_host", cfg.Storage.Redis.Host).
		Msg("Storage initialized")

	// Initialize activity tracker
	trackerCtx, stopTracker := context.WithCancel(context.Background())
	defer stopTracker()

	activity, err := tracker.New(trackerCtx, store.Counters(), store.Settings(), tracker.Config{
		QueueSize: cfg.Tracking.QueueSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracker: %w", err)
	}

	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		if err := activity.Run(trackerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Tracker exited")
		}
	}()

	// Initialize classifier
	classifier, err := classify.NewEngine(classify.Config{
		PolicyFile: cfg.Classifier.PolicyFile,
		CacheSize:  cfg.Classifier.CacheSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	reporter := report.NewReporter(store.Counters(), store.Settings(), classifier)

	// Initialize daily reset scheduler
	resetScheduler, err := tracker.NewResetScheduler(store.Counters(), cfg.Tracking.DailyResetTime, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reset scheduler: %w", err)
	}
	resetScheduler.Start()

	// Initialize API Server
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(api.Config{
		ListenAddr:     apiAddr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, activity, store, reporter, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API Server: %w", err)
	}

	// Initialize Metrics Server
	var metricsServer *metrics.Server
	if cfg.Server.MetricsPort != 0 || (sdListeners.Activated && sdListeners.Metrics != nil) {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
		metricsServer = metrics.NewServer(metricsAddr, func(ctx context.Context) error {
			_, err := store.Settings().Get(ctx)
			return err
		}, logger)

		if sdListeners.Activated && sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}

		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start Metrics Server: %w", err)
		}
	}

	// Log startup complete
	logger.Info().Msg("sitetime startup complete")
	logger.Info().Msgf("API: http://%s/api/v1", apiAddr)
	if metricsServer != nil {
		logger.Info().Msgf("Metrics: http://%s:%d/metrics", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	}

	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	defer stopWatchdog()
	go systemd.RunWatchdog(watchdogCtx, logger)

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for signals (shutdown or reload)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Signal handling loop
	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			logger.Info().Msg("SIGHUP received, reloading classifier policy...")
			if err := classifier.Reload(); err != nil {
				logger.Error().Err(err).Msg("Failed to reload classifier policy")
			}
			continue
		}

		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, gracefully stopping...")
		break
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	// Stop accepting events before the final flush
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("Error stopping API Server")
	}

	if err := activity.Flush(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush pending session")
	}
	stopTracker()
	<-trackerDone

	resetScheduler.Stop()

	if metricsServer != nil {
		if err := metricsServer.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("Error stopping Metrics Server")
		}
	}

	logger.Info().Msg("sitetime stopped")

	return nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (must be bolt or redis)", cfg.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// quotesync keeps a local quote collection in sync with a remote source.
//
// It serves the quote API over HTTP and runs a background reconcile loop
// that pushes unsynced local quotes and merges the remote collection back
// with remote precedence.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotevault/quotesync/internal/adapters/clients"
	"github.com/quotevault/quotesync/internal/adapters/clients/acl"
	httpadapter "github.com/quotevault/quotesync/internal/adapters/http"
	"github.com/quotevault/quotesync/internal/adapters/http/handlers"
	"github.com/quotevault/quotesync/internal/adapters/storage"
	"github.com/quotevault/quotesync/internal/app"
	"github.com/quotevault/quotesync/internal/platform/config"
	"github.com/quotevault/quotesync/internal/platform/logging"
	"github.com/quotevault/quotesync/internal/platform/telemetry"
	"github.com/quotevault/quotesync/internal/ports"
)

// Build-time values, injected via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration
	profile := os.Getenv("APP_PROFILE")

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// 2. Logging
	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting quotesync",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("profile", profile),
		slog.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// 3. Telemetry
	telemetryProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	// 4. Health registry
	healthRegistry := ports.NewHealthRegistry()

	// 5. Persistent store and session store
	store, err := storage.OpenSQLite(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close failed", slog.Any("error", err))
		}
	}()

	if err := healthRegistry.Register(store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	session := storage.NewMemoryStore()

	// 6. Remote source behind the instrumented client
	remoteClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Remote.BaseURL,
		ServiceName: cfg.Remote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating remote client: %w", err)
	}

	remote := acl.NewRemoteSource(remoteClient, cfg.Remote.Name)

	if err := healthRegistry.Register(remote); err != nil {
		return fmt.Errorf("registering remote health check: %w", err)
	}

	// 7. Application services
	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:     store,
		Session:   session,
		QuotesKey: cfg.Storage.QuotesKey,
		FilterKey: cfg.Storage.FilterKey,
		Logger:    logger,
	})

	if err := service.Load(ctx); err != nil {
		return fmt.Errorf("loading quote collection: %w", err)
	}

	logger.Info("quote collection loaded", slog.Int("count", service.Count()))

	engine := app.NewSyncEngine(service, remote, logger)
	scheduler := app.NewSyncScheduler(engine, app.SchedulerConfig{
		Interval:     cfg.Sync.Interval,
		CycleTimeout: cfg.Sync.CycleTimeout,
		Startup:      cfg.Sync.Startup,
		Logger:       logger,
	})

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()

	go scheduler.Run(schedulerCtx)

	// 8. HTTP server
	server := httpadapter.New(&cfg.Server, logger)

	httpadapter.SetupRouter(server.Engine(), httpadapter.RouterConfig{
		Logger:        logger,
		ServiceName:   cfg.App.Name,
		QuoteHandler:  handlers.NewQuoteHandler(service),
		SyncHandler:   handlers.NewSyncHandler(scheduler),
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime)),
	})

	serverErrors := server.Start()
	logger.Info("http server started", slog.String("addr", server.Addr()))

	return waitForShutdown(serverErrors, server, stopScheduler, cfg.Server.ShutdownTimeout, logger)
}

// waitForShutdown blocks until the server fails or a termination signal
// arrives, then stops the scheduler and drains the server.
func waitForShutdown(
	serverErrors <-chan error,
	server *httpadapter.Server,
	stopScheduler context.CancelFunc,
	timeout time.Duration,
	logger *slog.Logger,
) error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Stop scheduling new sync cycles before draining requests. An
		// in-flight cycle is bounded by its own cycle timeout.
		stopScheduler()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Info("shutdown complete")
	}

	return nil
}

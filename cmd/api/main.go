package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/saturnino-fabrica-de-software/kinface/internal/api"
	"github.com/saturnino-fabrica-de-software/kinface/internal/assets"
	"github.com/saturnino-fabrica-de-software/kinface/internal/camera"
	"github.com/saturnino-fabrica-de-software/kinface/internal/config"
	"github.com/saturnino-fabrica-de-software/kinface/internal/database"
	"github.com/saturnino-fabrica-de-software/kinface/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/kinface/internal/face"
	"github.com/saturnino-fabrica-de-software/kinface/internal/gallery"
	"github.com/saturnino-fabrica-de-software/kinface/internal/metrics"
	"github.com/saturnino-fabrica-de-software/kinface/internal/notify"
	"github.com/saturnino-fabrica-de-software/kinface/internal/recognition"
	"github.com/saturnino-fabrica-de-software/kinface/internal/repository"
	"github.com/saturnino-fabrica-de-software/kinface/internal/service"
	"github.com/saturnino-fabrica-de-software/kinface/internal/session"
	"github.com/saturnino-fabrica-de-software/kinface/internal/webhook"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Kinface API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	if err := database.MigrateUp(ctx, cfg.DatabaseURL, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	// Storage
	repo := repository.NewIdentityRepository(pool)
	galleryCache := gallery.New(repo, cfg.GalleryCacheTTL, logger, m)
	store := assets.NewStore(cfg.WorkDir, cfg.AssetDir)
	identities := service.NewIdentityService(repo, store, galleryCache, logger)

	// Face pipeline
	faceProvider, err := face.NewFaceProvider(cfg)
	if err != nil {
		return err
	}

	enrollCfg := enrollment.Config{
		CaptureLimit:      cfg.CaptureLimit,
		MinDetectionScore: cfg.MinDetectionScore,
	}
	committer := enrollment.NewCommitter(identities)
	aggregator := enrollment.NewAggregator(faceProvider, committer, enrollCfg, logger, m)
	batch := enrollment.NewBatch(faceProvider, committer, enrollCfg, logger, m)
	recognizer := recognition.NewRecognizer(faceProvider, galleryCache, logger, m)

	// Notifications
	var webhookClient *webhook.Client
	var speaker notify.Speaker = notify.LogSpeaker{Logger: logger}
	if cfg.NotifyWebhookURL != "" {
		webhookClient = webhook.NewClient(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret)
		speaker = notify.WebhookSpeaker{Client: webhookClient}
	}
	notifier := notify.NewNotifier(speaker, logger, m)
	defer notifier.Stop()

	// Events
	hub := ws.NewHub()
	broadcaster := api.NewBroadcaster(hub, webhookClient, logger)
	defer broadcaster.Wait()

	// Live session
	var opener camera.Opener
	switch cfg.CameraSource {
	case "snapshot":
		opener = camera.SnapshotOpener(cfg.CameraURLs, &http.Client{Timeout: 5 * time.Second})
	case "device":
		opener = camera.DeviceOpener(cfg.CameraDevices)
	default:
		opener = camera.DirOpener(cfg.CameraDirs)
	}

	controller := session.NewController(
		opener,
		faceProvider,
		aggregator,
		recognizer,
		notifier,
		broadcaster,
		session.Config{
			FrameInterval: cfg.FrameInterval,
			SavedHold:     session.DefaultSavedHold,
		},
		logger,
	)
	defer controller.Stop()

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Identities: identities,
		Recognizer: recognizer,
		Enroller:   batch,
		Session:    controller,
		Hub:        hub,
		Publisher:  broadcaster,
		DB:         pool,
		Metrics:    registry,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	controller.Stop()
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/kinface/internal/assets"
	"github.com/saturnino-fabrica-de-software/kinface/internal/config"
	"github.com/saturnino-fabrica-de-software/kinface/internal/database"
	"github.com/saturnino-fabrica-de-software/kinface/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/kinface/internal/face"
	"github.com/saturnino-fabrica-de-software/kinface/internal/gallery"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
	"github.com/saturnino-fabrica-de-software/kinface/internal/recognition"
	"github.com/saturnino-fabrica-de-software/kinface/internal/repository"
	"github.com/saturnino-fabrica-de-software/kinface/internal/service"
)

// cliApp holds what every subcommand needs. The gallery is read straight
// from the database since each invocation is short lived.
type cliApp struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	identities *service.IdentityService
	provider   provider.FaceProvider
	committer  *enrollment.Committer
	recognizer *recognition.Recognizer
}

func newCLIApp(ctx context.Context) (*cliApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := config.NewLoggerTo(os.Stderr, cfg.Environment)

	if err := database.MigrateUp(ctx, cfg.DatabaseURL, logger); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}

	faceProvider, err := face.NewFaceProvider(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	repo := repository.NewIdentityRepository(pool)
	galleryView := gallery.New(repo, 0, logger, nil)
	store := assets.NewStore(cfg.WorkDir, cfg.AssetDir)
	identities := service.NewIdentityService(repo, store, galleryView, logger)

	return &cliApp{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		identities: identities,
		provider:   faceProvider,
		committer:  enrollment.NewCommitter(identities),
		recognizer: recognition.NewRecognizer(faceProvider, galleryView, logger, nil),
	}, nil
}

// batch returns a one-shot enroller. A positive limit overrides
// CAPTURE_LIMIT.
func (a *cliApp) batch(limit int) *enrollment.Batch {
	cfg := enrollment.Config{
		CaptureLimit:      a.cfg.CaptureLimit,
		MinDetectionScore: a.cfg.MinDetectionScore,
	}
	if limit > 0 {
		cfg.CaptureLimit = limit
	}
	return enrollment.NewBatch(a.provider, a.committer, cfg, a.logger, nil)
}

func (a *cliApp) Close() {
	a.pool.Close()
}

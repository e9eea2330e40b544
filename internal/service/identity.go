package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/repository"
)

type AssetStore interface {
	Save(png []byte) (string, error)
	Remove(path string) error
	Open(path string) (*os.File, error)
}

// GalleryInvalidator is told about every write so cached snapshots reload.
type GalleryInvalidator interface {
	Invalidate()
}

type IdentityService struct {
	repo    repository.IdentityRepositoryInterface
	assets  AssetStore
	gallery GalleryInvalidator
	logger  *slog.Logger
}

func NewIdentityService(
	repo repository.IdentityRepositoryInterface,
	assets AssetStore,
	gallery GalleryInvalidator,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		repo:    repo,
		assets:  assets,
		gallery: gallery,
		logger:  logger,
	}
}

// Create stores the face image and then the record pointing at it. If the
// record cannot be written the image is removed again.
func (s *IdentityService) Create(ctx context.Context, name, relation string, embedding []float32, facePNG []byte) (*domain.Identity, error) {
	path, err := s.assets.Save(facePNG)
	if err != nil {
		return nil, fmt.Errorf("save face image: %w", err)
	}

	identity := &domain.Identity{
		Name:      name,
		Relation:  relation,
		ImagePath: path,
		Embedding: embedding,
	}
	if err := s.repo.Create(ctx, identity); err != nil {
		if rmErr := s.assets.Remove(path); rmErr != nil {
			s.logger.Warn("orphaned face image",
				"path", path,
				slog.Any("error", domain.ErrAssetDeleteFailed.WithError(rmErr)),
			)
		}
		return nil, err
	}
	s.invalidate()

	s.logger.Info("identity created",
		"identity_id", identity.ID,
		"name", identity.Name,
		"relation", identity.Relation,
		"image_path", identity.ImagePath,
	)

	return identity, nil
}

func (s *IdentityService) List(ctx context.Context) ([]domain.IdentitySummary, error) {
	return s.repo.List(ctx)
}

func (s *IdentityService) Get(ctx context.Context, id int64) (*domain.Identity, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes the editable fields. The embedding and image never change.
func (s *IdentityService) Update(ctx context.Context, id int64, name, relation string) error {
	name = strings.TrimSpace(name)
	relation = strings.TrimSpace(relation)
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	if err := s.repo.Update(ctx, id, name, relation); err != nil {
		return err
	}
	s.invalidate()

	return nil
}

// Delete removes the record and, best-effort, its image files. A failure to
// remove the files is logged and does not fail the delete.
func (s *IdentityService) Delete(ctx context.Context, id int64) error {
	identity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.assets.Remove(identity.ImagePath); err != nil {
		s.logger.Warn("could not remove face image",
			"identity_id", id,
			"path", identity.ImagePath,
			slog.Any("error", domain.ErrAssetDeleteFailed.WithError(err)),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()

	s.logger.Info("identity deleted", "identity_id", id)
	return nil
}

// OpenImage opens the stored face image of a record.
func (s *IdentityService) OpenImage(ctx context.Context, id int64) (*os.File, error) {
	identity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := s.assets.Open(identity.ImagePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound.WithError(err)
	}
	if err != nil {
		return nil, fmt.Errorf("open face image: %w", err)
	}
	return f, nil
}

func (s *IdentityService) invalidate() {
	if s.gallery != nil {
		s.gallery.Invalidate()
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

type IdentityRepository struct {
	pool PgxPool
}

func NewIdentityRepository(pool PgxPool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (name, relation, image_path, features, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if identity.Name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	features, err := EncodeFeatures(identity.Embedding)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		identity.Name,
		identity.Relation,
		identity.ImagePath,
		features,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	return nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]domain.IdentitySummary, error) {
	query := `
		SELECT id, name, COALESCE(relation, ''), image_path
		FROM identities
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	identities := make([]domain.IdentitySummary, 0)
	for rows.Next() {
		var s domain.IdentitySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Relation, &s.ImagePath); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}

	return identities, nil
}

// GetByID returns the full record. A record whose features blob is corrupt
// is still returned, with Corrupt set and no embedding.
func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	query := `
		SELECT id, name, COALESCE(relation, ''), image_path, features, created_at, updated_at
		FROM identities
		WHERE id = $1
	`

	var identity domain.Identity
	var features []byte

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&identity.ID,
		&identity.Name,
		&identity.Relation,
		&identity.ImagePath,
		&features,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity by id: %w", err)
	}

	embedding, err := DecodeFeatures(features)
	if err != nil {
		identity.Corrupt = true
	} else {
		identity.Embedding = embedding
	}

	return &identity, nil
}

func (r *IdentityRepository) Update(ctx context.Context, id int64, name, relation string) error {
	query := `
		UPDATE identities
		SET name = $2, relation = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, name, relation)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}

	return nil
}

func (r *IdentityRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM identities
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}

	return nil
}

// Gallery loads every record with a valid embedding, in id order. IDs of
// records whose blob has the wrong length are returned separately so the
// caller can report them.
func (r *IdentityRepository) Gallery(ctx context.Context) ([]domain.GalleryEntry, []int64, error) {
	query := `
		SELECT id, name, COALESCE(relation, ''), features
		FROM identities
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("load gallery: %w", err)
	}
	defer rows.Close()

	var (
		entries []domain.GalleryEntry
		corrupt []int64
	)
	for rows.Next() {
		var (
			e        domain.GalleryEntry
			features []byte
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Relation, &features); err != nil {
			return nil, nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		embedding, err := DecodeFeatures(features)
		if err != nil {
			corrupt = append(corrupt, e.ID)
			continue
		}
		e.Embedding = embedding
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load gallery: %w", err)
	}

	return entries, corrupt, nil
}

var _ IdentityRepositoryInterface = (*IdentityRepository)(nil)

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use; pgxmock's
// pool satisfies it in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityRepositoryInterface defines operations for identity data access
type IdentityRepositoryInterface interface {
	Create(ctx context.Context, identity *domain.Identity) error
	List(ctx context.Context) ([]domain.IdentitySummary, error)
	GetByID(ctx context.Context, id int64) (*domain.Identity, error)
	Update(ctx context.Context, id int64, name, relation string) error
	Delete(ctx context.Context, id int64) error
	Gallery(ctx context.Context) ([]domain.GalleryEntry, []int64, error)
}

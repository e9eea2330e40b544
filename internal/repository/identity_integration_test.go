//go:build integration

package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/kinface/internal/database"
	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/matcher"
)

func setupIntegrationTest(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "kinface_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/kinface_test?sslmode=disable", host, port.Port())

	require.NoError(t, database.MigrateUp(ctx, connStr, slog.New(slog.NewTextHandler(io.Discard, nil))))

	db, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func TestIdentityRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(db)

	alice := &domain.Identity{Name: "Alice", Relation: "Friend", ImagePath: "assets/face_a.png", Embedding: embedding(1)}
	bob := &domain.Identity{Name: "Bob", Relation: "", ImagePath: "assets/face_b.png", Embedding: embedding(-1)}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))
	assert.Greater(t, bob.ID, alice.ID)

	// a row written by an older client with the wrong blob length
	var corruptID int64
	err := db.QueryRow(ctx,
		`INSERT INTO identities (name, relation, image_path, features) VALUES ($1, $2, $3, $4) RETURNING id`,
		"Mallory", "Stranger", "assets/face_m.png", make([]byte, 1024),
	).Scan(&corruptID)
	require.NoError(t, err)

	t.Run("list is ordered by id", func(t *testing.T) {
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Alice", list[0].Name)
		assert.Equal(t, "Bob", list[1].Name)
		assert.Equal(t, "Mallory", list[2].Name)
	})

	t.Run("gallery excludes corrupt rows", func(t *testing.T) {
		entries, corrupt, err := repo.Gallery(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, []int64{corruptID}, corrupt)

		result := matcher.Match(embedding(1), entries)
		assert.Equal(t, "Alice", result.Name)
		assert.InDelta(t, 100, result.Score, 1e-6)
	})

	t.Run("update then get", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, bob.ID, "Robert", "Brother"))

		got, err := repo.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Name)
		assert.Equal(t, "Brother", got.Relation)
		assert.Equal(t, bob.Embedding, got.Embedding)
	})

	t.Run("delete then get", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, alice.ID))

		_, err := repo.GetByID(ctx, alice.ID)
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, alice.ID), domain.ErrIdentityNotFound)
	})
}

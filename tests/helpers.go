// Package tests contains integration tests that run against a disposable
// PostgreSQL container with pgvector installed.
package tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/creatorbrands/directory/pkg/database"
)

const pgvectorImage = "pgvector/pgvector:pg16"

// startTestDatabase starts a pgvector-enabled Postgres container, applies
// the schema, and returns a connection pool. Everything is torn down via
// t.Cleanup.
func startTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, pgvectorImage,
		postgres.WithDatabase("directory_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	applyMigrations(t, ctx, dsn)

	// The pool registers pgvector types on connect, so the extension must
	// exist before the pool is created; hence migrations run first over a
	// plain connection.
	db, err := database.NewPostgresPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()

	schema, err := os.ReadFile(filepath.Join("..", "migrations", "001_init.sql"))
	require.NoError(t, err)

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)

	defer func() {
		_ = conn.Close(ctx)
	}()

	_, err = conn.Exec(ctx, string(schema))
	require.NoError(t, err)
}

// unitVector returns a dimensions-long vector with a 1 at axis, 0 elsewhere.
// Axis-aligned unit vectors give exact cosine similarities (1 for the same
// axis, 0 for orthogonal ones), which keeps threshold assertions crisp.
func unitVector(dimensions, axis int) []float32 {
	v := make([]float32, dimensions)
	v[axis] = 1

	return v
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/db"
)

func TestPostgresRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(connStr))
	// second run is a no-op
	require.NoError(t, db.Migrate(connStr))

	pool, err := db.NewPool(ctx, connStr, db.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	t.Run("analyses", func(t *testing.T) {
		runAnalysisRepositoryContract(t, NewPostgresAnalysisRepository(pool))
	})
	t.Run("tokens", func(t *testing.T) {
		runTokenRepositoryContract(t, NewPostgresTokenRepository(pool))
	})
}

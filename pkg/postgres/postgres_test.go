package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/local-library/catalog/migrations"
	"github.com/Astemirdum/local-library/pkg/postgres"
)

func TestDB_DSN(t *testing.T) {
	t.Parallel()
	cfg := postgres.DB{
		Host:     "db",
		Port:     "5432",
		Username: "postgres",
		Password: "p@ss",
		NameDB:   "catalog",
		SSLMode:  "disable",
	}
	require.Equal(t, "postgres://postgres:p%40ss@db:5432/catalog?sslmode=disable", cfg.DSN())
}

func TestMigrate(t *testing.T) {
	dsn := os.Getenv("CATALOG_TEST_DSN")
	if dsn == "" {
		t.Skip("CATALOG_TEST_DSN is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool, migrations.MigrationFiles))
	// applied migrations are skipped
	require.NoError(t, postgres.Migrate(pool, migrations.MigrationFiles))

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM book_instances").Scan(&n))
}

//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for database operations
// Run with: go test -v -tags=integration ./internal/repository/...

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T) (*Database, context.Context) {
	ctx := context.Background()

	cfg := Config{
		Host:     getenv("TEST_DATABASE_HOST", "localhost"),
		Port:     getenv("TEST_DATABASE_PORT", "5432"),
		Database: getenv("TEST_DATABASE_NAME", "matchform_test"),
		User:     getenv("TEST_DATABASE_USER", "matchform"),
		Password: getenv("TEST_DATABASE_PASSWORD", "matchform"),
		SSLMode:  "disable",
	}

	db, err := NewDatabase(ctx, cfg)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Migrate(ctx))

	_, err = db.Pool.Exec(ctx, `TRUNCATE training_rows, team_form_snapshots, team_codes, match_records, pipeline_runs`)
	require.NoError(t, err)

	return db, ctx
}

func teardownTestDB(t *testing.T, db *Database) {
	db.Close()
}

func TestDatabaseConnection(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Test health check
	err := db.Health(ctx)
	assert.NoError(t, err, "Database health check should pass")

	// Test stats
	stats := db.PoolStats()
	assert.NotNil(t, stats, "Should return connection pool stats")
	assert.GreaterOrEqual(t, stats["max_conns"].(int32), int32(1), "Should have at least 1 max connection")
}

func TestDatabaseMigrateIsRepeatable(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	assert.NoError(t, db.Migrate(ctx))
}

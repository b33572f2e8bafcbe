package testutil

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/qqqqqqq1/discord-thread-bot/db"
)

// SetupTestDB returns a connection whose search_path points at a fresh schema with
// the threads table migrated into it. The schema is dropped when the test ends, so
// tests never see each other's history rows. It skips the test if TEST_PG_DSN is not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()

	admin, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	schema := "threadbot_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA `+schema); err != nil {
		admin.Close()
		t.Fatalf("failed to create schema: %v", err)
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		admin.Close()
		t.Fatalf("failed to parse TEST_PG_DSN: %v", err)
	}
	cfg.RuntimeParams["search_path"] = schema
	database := stdlib.OpenDB(*cfg)

	t.Cleanup(func() {
		database.Close()
		if _, err := admin.ExecContext(context.Background(), `DROP SCHEMA IF EXISTS `+schema+` CASCADE`); err != nil {
			t.Logf("failed to drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	if err := db.Migrate(ctx, database); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return database
}

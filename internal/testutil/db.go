package testutil

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/xxxsen/vecdash/internal/config"
	"github.com/xxxsen/vecdash/internal/db"
)

// OpenTestDB connects to the postgres named by TEST_DB_* variables, drops
// the demo tables and recreates them. Tests are skipped without TEST_DB_HOST.
func OpenTestDB(t *testing.T) (*sql.DB, db.VectorKind, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	port := 5432
	if v := os.Getenv("TEST_DB_PORT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			t.Fatalf("TEST_DB_PORT: %v", err)
		}
		port = parsed
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:   envOr("TEST_DB_NAME", "vecdash_test"),
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ResetSchema(t, conn)
	kind, err := db.EnsureSchema(context.Background(), conn, config.Dimension)
	if err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return conn, kind, func() {
		_ = conn.Close()
	}
}

func ResetSchema(t *testing.T, conn *sql.DB) {
	t.Helper()
	if _, err := conn.Exec("DROP TABLE IF EXISTS embeddings, documents, users, schema_meta CASCADE"); err != nil {
		t.Fatalf("drop tables: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

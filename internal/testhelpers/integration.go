//go:build integration
// +build integration

// Package testhelpers sets up external backends for integration tests.
package testhelpers

import (
	"context"
	"os"
	"testing"

	"github.com/kjstillabower/solawi/internal/store"
)

// resetTables lists every table holding data, children first.
const resetTables = "deposits, bets, members, persons, shares, stations, users"

// PostgresURL returns TEST_DATABASE_URL and skips the test when it is unset.
func PostgresURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	return url
}

// OpenPostgresStore connects to TEST_DATABASE_URL, applies the schema and empties all
// tables so each test starts from a clean database. The store is closed on cleanup.
// Packages sharing the database must not run concurrently: use go test -p 1.
func OpenPostgresStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, PostgresURL(t))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if st.Dialect() != store.DialectPostgres {
		t.Fatalf("TEST_DATABASE_URL must point at PostgreSQL, got %s", st.Dialect())
	}
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := st.ExecContext(ctx, "TRUNCATE "+resetTables+" RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return st
}

// MemcachedAddr returns MEMCACHED_ADDRS or the local default.
func MemcachedAddr() string {
	if a := os.Getenv("MEMCACHED_ADDRS"); a != "" {
		return a
	}
	return "localhost:11211"
}

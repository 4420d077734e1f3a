// package testutil contains shared testing utilities
package testutil

import (
	"testing"

	"github.com/JustinTDCT/moviestore/internal/db"
)

// OpenDB returns an in-memory SQLite database with all migrations applied.
// The database is closed when the test finishes.
func OpenDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(database, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return database
}

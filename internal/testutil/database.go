package testutil

import (
	"testing"

	"rwb-go/internal/database"
	"rwb-go/internal/database/migrations"
)

// NewTestDatabase creates an in-memory SQLite database with the schema
// fully migrated. The connection is closed automatically when the test ends.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	conn, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Each pooled connection to ":memory:" gets its own database; pin the
	// pool to one so concurrent test goroutines see the same schema.
	conn.SetMaxOpenConns(1)

	if err := migrations.MigrateUp(conn); err != nil {
		conn.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(conn)
	t.Cleanup(func() { db.Close() })
	return db
}

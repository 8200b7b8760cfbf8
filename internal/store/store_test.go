package store

import (
	"database/sql"
	"testing"

	"github.com/steeplehq/steeple/internal/database"
)

// setupTestDB opens a fresh in-memory database with migrations applied and
// creates one organization to scope records under.
func setupTestDB(t *testing.T) (*sql.DB, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A fresh connection would see a separate empty in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	org, err := NewOrganizationStore(db).Create("Test Org")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return db, org.ID
}

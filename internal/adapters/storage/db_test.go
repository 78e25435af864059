package storage

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestInitDB_Fresh verifies the schema applies cleanly to an empty database.
func TestInitDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	if err := InitDB(db); err != nil {
		t.Fatalf("InitDB failed on fresh db: %v", err)
	}

	tables := []string{
		"account", "class", "booking", "customer",
		"pass_history", "completed_pass", "completed_session",
		"notification_outbox",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing after InitDB: %v", table, err)
		}
	}
}

// TestInitDB_Idempotent verifies that running InitDB twice produces no
// errors and no data loss.
func TestInitDB_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := InitDB(db); err != nil {
		t.Fatalf("first InitDB failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO customer (id, name, email) VALUES ('c1', 'Alice', 'alice@example.com')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := InitDB(db); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM customer").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("customer count after re-init = %d, want 1", count)
	}
}

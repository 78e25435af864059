package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS class (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		location TEXT,
		status TEXT NOT NULL,
		series_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_class_series ON class(series_id, start_time);

	CREATE TABLE IF NOT EXISTS booking (
		id TEXT PRIMARY KEY,
		class_id TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		village TEXT,
		status TEXT NOT NULL,
		cancel_token TEXT NOT NULL UNIQUE,
		attendance_status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		cancelled_at TEXT,
		FOREIGN KEY (class_id) REFERENCES class(id)
	);
	CREATE INDEX IF NOT EXISTS idx_booking_class ON booking(class_id, status);
	CREATE INDEX IF NOT EXISTS idx_booking_email ON booking(customer_email);

	CREATE TABLE IF NOT EXISTS customer (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		village TEXT,
		pass_remaining INTEGER NOT NULL DEFAULT 0,
		pass_total INTEGER NOT NULL DEFAULT 0,
		pass_purchased_at TEXT
	);

	CREATE TABLE IF NOT EXISTS pass_history (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		booking_id TEXT NOT NULL UNIQUE,
		session_number INTEGER NOT NULL,
		class_title TEXT NOT NULL,
		attended_at TEXT NOT NULL,
		FOREIGN KEY (customer_id) REFERENCES customer(id),
		FOREIGN KEY (booking_id) REFERENCES booking(id)
	);
	CREATE INDEX IF NOT EXISTS idx_pass_history_customer ON pass_history(customer_id, session_number);

	CREATE TABLE IF NOT EXISTS completed_pass (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		purchased_at TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		sessions_count INTEGER NOT NULL,
		FOREIGN KEY (customer_id) REFERENCES customer(id)
	);

	CREATE TABLE IF NOT EXISTS completed_session (
		id TEXT PRIMARY KEY,
		completed_pass_id TEXT NOT NULL,
		session_number INTEGER NOT NULL,
		class_title TEXT NOT NULL,
		attended_at TEXT NOT NULL,
		FOREIGN KEY (completed_pass_id) REFERENCES completed_pass(id)
	);
	CREATE INDEX IF NOT EXISTS idx_completed_session_pass ON completed_session(completed_pass_id, session_number);

	CREATE TABLE IF NOT EXISTS notification_outbox (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		recipient TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		last_error TEXT
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"villagefit/internal/adapters/storage"
	domain "villagefit/internal/domain/outbox"
)

// ErrNotFound is returned when no outbox entry matches the lookup.
var ErrNotFound = errors.New("outbox entry not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const entryColumns = "id, kind, recipient, payload, status, attempts, max_attempts, last_attempted_at, created_at, last_error"

// GetByID retrieves an Entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM notification_outbox WHERE id = ?", id)
	entity, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Entry{}, ErrNotFound
	}
	return entity, err
}

// Save persists an Entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO notification_outbox (id, kind, recipient, payload, status, attempts, max_attempts, last_attempted_at, created_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, attempts=excluded.attempts,
			last_attempted_at=excluded.last_attempted_at, last_error=excluded.last_error`

	var lastAttemptVal, lastErrVal any
	if !entity.LastAttemptedAt.IsZero() {
		lastAttemptVal = entity.LastAttemptedAt.UTC().Format(time.RFC3339)
	}
	if entity.LastError != "" {
		lastErrVal = entity.LastError
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Kind,
		entity.Recipient,
		entity.Payload,
		entity.Status,
		entity.Attempts,
		entity.MaxAttempts,
		lastAttemptVal,
		entity.CreatedAt.UTC().Format(time.RFC3339),
		lastErrVal,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListPending retrieves retryable entries oldest first.
// PRE: limit > 0
// POST: Returns pending/retrying entries up to limit
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	query := "SELECT " + entryColumns + ` FROM notification_outbox
		WHERE status IN (?, ?) AND attempts < max_attempts
		ORDER BY created_at LIMIT ?`
	return s.queryEntries(ctx, query, domain.StatusPending, domain.StatusRetrying, limit)
}

// List retrieves entries based on the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Entry, error) {
	query := "SELECT " + entryColumns + " FROM notification_outbox"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	return s.queryEntries(ctx, query, args...)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Entry
	for rows.Next() {
		entity, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var entity domain.Entry
	var createdStr string
	var lastAttempt, lastErr sql.NullString
	err := scan(
		&entity.ID,
		&entity.Kind,
		&entity.Recipient,
		&entity.Payload,
		&entity.Status,
		&entity.Attempts,
		&entity.MaxAttempts,
		&lastAttempt,
		&createdStr,
		&lastErr,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	entity.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if lastAttempt.Valid {
		entity.LastAttemptedAt, err = time.Parse(time.RFC3339, lastAttempt.String)
		if err != nil {
			return domain.Entry{}, fmt.Errorf("failed to parse last_attempted_at: %w", err)
		}
	}
	if lastErr.Valid {
		entity.LastError = lastErr.String
	}
	return entity, nil
}

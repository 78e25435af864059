package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"villagefit/internal/adapters/storage"
	domain "villagefit/internal/domain/account"
)

// ErrNotFound is returned when no account matches the lookup.
var ErrNotFound = errors.New("account not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const accountColumns = "id, email, password_hash, role, created_at, failed_logins, locked_until"

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the account or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, ErrNotFound
	}
	return entity, err
}

// GetByEmail retrieves an Account by email.
// PRE: email is non-empty
// POST: Returns the account or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE email = ?", email)
	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, ErrNotFound
	}
	return entity, err
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO account (id, email, password_hash, role, created_at, failed_logins, locked_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email=excluded.email, password_hash=excluded.password_hash, role=excluded.role,
			failed_logins=excluded.failed_logins, locked_until=excluded.locked_until`

	var lockedVal any
	if !entity.LockedUntil.IsZero() {
		lockedVal = entity.LockedUntil.UTC().Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Email,
		entity.PasswordHash,
		entity.Role,
		entity.CreatedAt.UTC().Format(time.RFC3339),
		entity.FailedLogins,
		lockedVal,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Count returns the number of accounts, used to decide whether to seed
// the default admin.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var createdStr string
	var locked sql.NullString
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&createdStr,
		&entity.FailedLogins,
		&locked,
	)
	if err != nil {
		return domain.Account{}, err
	}
	entity.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if locked.Valid {
		entity.LockedUntil, err = time.Parse(time.RFC3339, locked.String)
		if err != nil {
			return domain.Account{}, fmt.Errorf("failed to parse locked_until: %w", err)
		}
	}
	return entity, nil
}

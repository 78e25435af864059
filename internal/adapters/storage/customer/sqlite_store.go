package customer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"villagefit/internal/adapters/storage"
	domain "villagefit/internal/domain/customer"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new customer store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const customerColumns = "id, name, email, village, pass_remaining, pass_total, pass_purchased_at"

// GetByID retrieves a Customer by its ID.
// PRE: id is non-empty
// POST: Returns the customer or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customer WHERE id = ?", id)
	entity, err := scanCustomer(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Customer{}, domain.ErrNotFound
	}
	return entity, err
}

// GetByEmail retrieves a Customer by normalized email.
// PRE: email is already normalized
// POST: Returns the customer or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customer WHERE email = ?", email)
	entity, err := scanCustomer(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Customer{}, domain.ErrNotFound
	}
	return entity, err
}

// Save persists a Customer to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Customer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO customer (id, name, email, village, pass_remaining, pass_total, pass_purchased_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, email=excluded.email, village=excluded.village,
			pass_remaining=excluded.pass_remaining, pass_total=excluded.pass_total,
			pass_purchased_at=excluded.pass_purchased_at`

	var villageVal, purchasedVal any
	if entity.Village != "" {
		villageVal = entity.Village
	}
	if !entity.PassPurchasedAt.IsZero() {
		purchasedVal = entity.PassPurchasedAt.UTC().Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Email,
		villageVal,
		entity.PassRemaining,
		entity.PassTotal,
		purchasedVal,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// List retrieves customers ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching customers
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customer ORDER BY name"
	var args []any
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	return s.queryCustomers(ctx, query, args...)
}

// ListExpiredPasses retrieves customers whose purchased pass has no
// sessions left, used to drive renewal prompts.
func (s *SQLiteStore) ListExpiredPasses(ctx context.Context) ([]domain.Customer, error) {
	query := "SELECT " + customerColumns + ` FROM customer
		WHERE pass_purchased_at IS NOT NULL AND pass_remaining = 0
		ORDER BY name`
	return s.queryCustomers(ctx, query)
}

// ListLowBalancePasses retrieves customers with one or two sessions
// left on their pass.
func (s *SQLiteStore) ListLowBalancePasses(ctx context.Context) ([]domain.Customer, error) {
	query := "SELECT " + customerColumns + ` FROM customer
		WHERE pass_remaining >= 1 AND pass_remaining <= ?
		ORDER BY name`
	return s.queryCustomers(ctx, query, domain.LowBalanceThreshold)
}

func (s *SQLiteStore) queryCustomers(ctx context.Context, query string, args ...any) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Customer
	for rows.Next() {
		entity, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanCustomer(scan func(dest ...any) error) (domain.Customer, error) {
	var entity domain.Customer
	var village, purchased sql.NullString
	err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Email,
		&village,
		&entity.PassRemaining,
		&entity.PassTotal,
		&purchased,
	)
	if err != nil {
		return domain.Customer{}, err
	}
	if village.Valid {
		entity.Village = village.String
	}
	if purchased.Valid {
		entity.PassPurchasedAt, err = time.Parse(time.RFC3339, purchased.String)
		if err != nil {
			return domain.Customer{}, fmt.Errorf("failed to parse pass_purchased_at: %w", err)
		}
	}
	return entity, nil
}

package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"villagefit/internal/adapters/storage"
	domain "villagefit/internal/domain/booking"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new booking store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const bookingColumns = "id, class_id, customer_name, customer_email, village, status, cancel_token, attendance_status, created_at, cancelled_at"

// GetByID retrieves a Booking by its ID.
// PRE: id is non-empty
// POST: Returns the booking or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM booking WHERE id = ?", id)
	entity, err := scanBooking(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return entity, err
}

// GetByToken retrieves a Booking by its cancellation token.
// PRE: token is non-empty
// POST: Returns the booking or domain.ErrNotFound
func (s *SQLiteStore) GetByToken(ctx context.Context, token string) (domain.Booking, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM booking WHERE cancel_token = ?", token)
	entity, err := scanBooking(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	return entity, err
}

// Save persists a Booking to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertBooking(ctx, tx, entity, true); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateActive inserts a new active booking after checking capacity and
// the one-active-booking-per-email rule, all inside one transaction.
// PRE: entity has been validated, entity.Status is active, capacity >= 1
// POST: Booking inserted, or domain.ErrClassFull / domain.ErrAlreadyBooked
// INVARIANT: active bookings for a class never exceed its capacity
func (s *SQLiteStore) CreateActive(ctx context.Context, entity domain.Booking, capacity int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var active int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM booking WHERE class_id = ? AND status = ?",
		entity.ClassID, domain.StatusActive).Scan(&active)
	if err != nil {
		return err
	}
	if active >= capacity {
		return domain.ErrClassFull
	}

	var duplicate int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM booking WHERE class_id = ? AND customer_email = ? AND status = ?",
		entity.ClassID, entity.CustomerEmail, domain.StatusActive).Scan(&duplicate)
	if err != nil {
		return err
	}
	if duplicate > 0 {
		return domain.ErrAlreadyBooked
	}

	if err := insertBooking(ctx, tx, entity, false); err != nil {
		return err
	}
	return tx.Commit()
}

// CountActiveByClassID counts active bookings for a class, the basis
// for capacity display.
// PRE: classID is non-empty
// POST: Returns count >= 0
func (s *SQLiteStore) CountActiveByClassID(ctx context.Context, classID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM booking WHERE class_id = ? AND status = ?",
		classID, domain.StatusActive).Scan(&count)
	return count, err
}

// CountActiveGrouped returns active booking counts keyed by class ID.
// POST: Classes with no active bookings are absent from the map
func (s *SQLiteStore) CountActiveGrouped(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT class_id, COUNT(*) FROM booking WHERE status = ? GROUP BY class_id",
		domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var classID string
		var count int
		if err := rows.Scan(&classID, &count); err != nil {
			return nil, err
		}
		counts[classID] = count
	}
	return counts, rows.Err()
}

// ListActiveByClassID retrieves active bookings for a class, used to
// notify affected customers when an occurrence is cancelled.
// PRE: classID is non-empty
// POST: Returns active bookings ordered by creation time
func (s *SQLiteStore) ListActiveByClassID(ctx context.Context, classID string) ([]domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM booking WHERE class_id = ? AND status = ? ORDER BY created_at",
		classID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Booking
	for rows.Next() {
		entity, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// CancelActiveByClassID cancels every active booking for a class in one
// statement, the cascade behind occurrence cancellation.
// PRE: classID is non-empty
// POST: Returns the number of bookings cancelled
func (s *SQLiteStore) CancelActiveByClassID(ctx context.Context, classID string, cancelledAt time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE booking SET status = ?, cancelled_at = ? WHERE class_id = ? AND status = ?",
		domain.StatusCancelled, formatStoredTime(cancelledAt), classID, domain.StatusActive)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

const joinedColumns = "b.id, b.class_id, b.customer_name, b.customer_email, b.village, b.status, b.cancel_token, b.attendance_status, b.created_at, b.cancelled_at, c.title, c.start_time, c.end_time, c.status"

// ListJoinedByEmail retrieves all bookings (any status) for a
// normalized email joined with their occurrences, newest class first.
// PRE: email is already normalized
// POST: Returns joined rows ordered by class start descending
func (s *SQLiteStore) ListJoinedByEmail(ctx context.Context, email string) ([]JoinedBooking, error) {
	query := `SELECT ` + joinedColumns + `
		FROM booking b JOIN class c ON c.id = b.class_id
		WHERE b.customer_email = ?
		ORDER BY c.start_time DESC`
	return s.queryJoined(ctx, query, email)
}

// ListActiveJoined retrieves every active booking joined with its
// occurrence, the raw material for the leaderboard and streak
// computations. Ordered by booking creation so ties resolve in
// discovery order.
func (s *SQLiteStore) ListActiveJoined(ctx context.Context) ([]JoinedBooking, error) {
	query := `SELECT ` + joinedColumns + `
		FROM booking b JOIN class c ON c.id = b.class_id
		WHERE b.status = ?
		ORDER BY b.created_at`
	return s.queryJoined(ctx, query, domain.StatusActive)
}

func (s *SQLiteStore) queryJoined(ctx context.Context, query string, args ...any) ([]JoinedBooking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []JoinedBooking
	for rows.Next() {
		var jb JoinedBooking
		var village, cancelledAt sql.NullString
		var createdStr, classStartStr, classEndStr string
		if err := rows.Scan(
			&jb.Booking.ID,
			&jb.Booking.ClassID,
			&jb.Booking.CustomerName,
			&jb.Booking.CustomerEmail,
			&village,
			&jb.Booking.Status,
			&jb.Booking.CancelToken,
			&jb.Booking.AttendanceStatus,
			&createdStr,
			&cancelledAt,
			&jb.ClassTitle,
			&classStartStr,
			&classEndStr,
			&jb.ClassStatus,
		); err != nil {
			return nil, err
		}
		if village.Valid {
			jb.Booking.Village = village.String
		}
		jb.Booking.CreatedAt, err = parseStoredTime(createdStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if cancelledAt.Valid {
			jb.Booking.CancelledAt, err = parseStoredTime(cancelledAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse cancelled_at: %w", err)
			}
		}
		jb.ClassStart, err = parseStoredTime(classStartStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse class start_time: %w", err)
		}
		jb.ClassEnd, err = parseStoredTime(classEndStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse class end_time: %w", err)
		}
		results = append(results, jb)
	}
	return results, rows.Err()
}

func insertBooking(ctx context.Context, tx *sql.Tx, entity domain.Booking, upsert bool) error {
	query := `INSERT INTO booking (id, class_id, customer_name, customer_email, village, status, cancel_token, attendance_status, created_at, cancelled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += ` ON CONFLICT(id) DO UPDATE SET
			customer_name=excluded.customer_name, village=excluded.village,
			status=excluded.status, attendance_status=excluded.attendance_status,
			cancelled_at=excluded.cancelled_at`
	}

	var villageVal, cancelledVal any
	if entity.Village != "" {
		villageVal = entity.Village
	}
	if !entity.CancelledAt.IsZero() {
		cancelledVal = formatStoredTime(entity.CancelledAt)
	}

	_, err := tx.ExecContext(ctx, query,
		entity.ID,
		entity.ClassID,
		entity.CustomerName,
		entity.CustomerEmail,
		villageVal,
		entity.Status,
		entity.CancelToken,
		entity.AttendanceStatus,
		formatStoredTime(entity.CreatedAt),
		cancelledVal,
	)
	return err
}

func scanBooking(scan func(dest ...any) error) (domain.Booking, error) {
	var entity domain.Booking
	var village, cancelledAt sql.NullString
	var createdStr string
	err := scan(
		&entity.ID,
		&entity.ClassID,
		&entity.CustomerName,
		&entity.CustomerEmail,
		&village,
		&entity.Status,
		&entity.CancelToken,
		&entity.AttendanceStatus,
		&createdStr,
		&cancelledAt,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	if village.Valid {
		entity.Village = village.String
	}
	entity.CreatedAt, err = parseStoredTime(createdStr)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if cancelledAt.Valid {
		entity.CancelledAt, err = parseStoredTime(cancelledAt.String)
		if err != nil {
			return domain.Booking{}, fmt.Errorf("failed to parse cancelled_at: %w", err)
		}
	}
	return entity, nil
}

// formatStoredTime renders a time as UTC RFC3339 so that lexicographic
// comparison in SQL matches chronological order.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseStoredTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

package sessionpass

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"villagefit/internal/adapters/storage"
	customerDomain "villagefit/internal/domain/customer"
	domain "villagefit/internal/domain/sessionpass"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db         storage.SQLDB
	generateID func() string
}

// NewSQLiteStore creates a new session-pass store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, generateID: func() string { return uuid.New().String() }}
}

// ConsumeSession records one attended session in a single transaction:
// history-existence check, remaining check, counter decrement and
// history insert.
// PRE: entry carries ID, CustomerID, BookingID, ClassTitle, AttendedAt
// POST: Returns (true, nil) when consumed, (false, nil) when the
// booking was already counted
// INVARIANT: pass_remaining never drops below zero, one history row
// per booking
func (s *SQLiteStore) ConsumeSession(ctx context.Context, entry domain.HistoryEntry) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pass_history WHERE booking_id = ?", entry.BookingID).Scan(&existing)
	if err != nil {
		return false, err
	}
	if existing > 0 {
		// Already counted, retried requests are safe.
		return false, nil
	}

	var remaining, total int
	err = tx.QueryRowContext(ctx,
		"SELECT pass_remaining, pass_total FROM customer WHERE id = ?", entry.CustomerID).Scan(&remaining, &total)
	if err == sql.ErrNoRows {
		return false, customerDomain.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if remaining <= 0 {
		return false, customerDomain.ErrNoSessionsRemaining
	}

	remaining--
	if _, err := tx.ExecContext(ctx,
		"UPDATE customer SET pass_remaining = ? WHERE id = ?", remaining, entry.CustomerID); err != nil {
		return false, err
	}

	// Ordinal within the current pass, computed after the decrement:
	// first session of a 10-pass is number 1.
	entry.SessionNumber = total - remaining
	if err := entry.Validate(); err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pass_history (id, customer_id, booking_id, session_number, class_title, attended_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CustomerID, entry.BookingID, entry.SessionNumber,
		entry.ClassTitle, entry.AttendedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// RestoreSession undoes a consumed session in a single transaction:
// delete the history row and hand the session back.
// PRE: bookingID is non-empty
// POST: Returns (true, nil) when restored, (false, nil) when no
// history row existed
func (s *SQLiteStore) RestoreSession(ctx context.Context, bookingID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var historyID, customerID string
	err = tx.QueryRowContext(ctx,
		"SELECT id, customer_id FROM pass_history WHERE booking_id = ?", bookingID).Scan(&historyID, &customerID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM pass_history WHERE id = ?", historyID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE customer SET pass_remaining = pass_remaining + 1 WHERE id = ?", customerID); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// ArchiveAndReset purchases a new pass: snapshot prior history into an
// immutable CompletedPass, clear the live history and reset the
// counters, all in one transaction. Partial passes archive as-is.
// PRE: sessionCount >= 1
// POST: Counters reset to sessionCount/sessionCount, purchase date set
// to now; returns the archive or nil when there was nothing to archive
func (s *SQLiteStore) ArchiveAndReset(ctx context.Context, customerID string, sessionCount int, now time.Time) (*domain.CompletedPass, error) {
	if sessionCount < 1 {
		return nil, customerDomain.ErrInvalidSessionCount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var purchased sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT pass_purchased_at FROM customer WHERE id = ?", customerID).Scan(&purchased)
	if err == sql.ErrNoRows {
		return nil, customerDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	history, err := listHistoryTx(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	var archived *domain.CompletedPass
	if len(history) > 0 && purchased.Valid {
		priorPurchase, err := time.Parse(time.RFC3339, purchased.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pass_purchased_at: %w", err)
		}

		pass := domain.CompletedPass{
			ID:            s.generateID(),
			CustomerID:    customerID,
			PurchasedAt:   priorPurchase,
			CompletedAt:   now,
			SessionsCount: len(history),
		}
		if err := pass.Validate(); err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO completed_pass (id, customer_id, purchased_at, completed_at, sessions_count)
			VALUES (?, ?, ?, ?, ?)`,
			pass.ID, pass.CustomerID,
			pass.PurchasedAt.UTC().Format(time.RFC3339),
			pass.CompletedAt.UTC().Format(time.RFC3339),
			pass.SessionsCount)
		if err != nil {
			return nil, err
		}

		for _, h := range history {
			snapshot := domain.CompletedSession{
				SessionNumber: h.SessionNumber,
				ClassTitle:    h.ClassTitle,
				AttendedAt:    h.AttendedAt,
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO completed_session (id, completed_pass_id, session_number, class_title, attended_at)
				VALUES (?, ?, ?, ?, ?)`,
				s.generateID(), pass.ID, snapshot.SessionNumber, snapshot.ClassTitle,
				snapshot.AttendedAt.UTC().Format(time.RFC3339))
			if err != nil {
				return nil, err
			}
			pass.Sessions = append(pass.Sessions, snapshot)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM pass_history WHERE customer_id = ?", customerID); err != nil {
			return nil, err
		}
		archived = &pass
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE customer SET pass_remaining = ?, pass_total = ?, pass_purchased_at = ? WHERE id = ?",
		sessionCount, sessionCount, now.UTC().Format(time.RFC3339), customerID)
	if err != nil {
		return nil, err
	}

	return archived, tx.Commit()
}

// ListHistoryByCustomerID retrieves the live history entries for a
// customer ordered by session number.
func (s *SQLiteStore) ListHistoryByCustomerID(ctx context.Context, customerID string) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, booking_id, session_number, class_title, attended_at
		FROM pass_history WHERE customer_id = ? ORDER BY session_number`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistoryRows(rows)
}

// GetHistoryByBookingID retrieves the history entry for a booking.
// POST: Returns (entry, true, nil) when present, (zero, false, nil)
// when absent
func (s *SQLiteStore) GetHistoryByBookingID(ctx context.Context, bookingID string) (domain.HistoryEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, booking_id, session_number, class_title, attended_at
		FROM pass_history WHERE booking_id = ?`, bookingID)

	entry, err := scanHistory(row.Scan)
	if err == sql.ErrNoRows {
		return domain.HistoryEntry{}, false, nil
	}
	if err != nil {
		return domain.HistoryEntry{}, false, err
	}
	return entry, true, nil
}

// ListCompletedPasses retrieves a customer's archived passes, newest
// first, each with its ordered session snapshots.
func (s *SQLiteStore) ListCompletedPasses(ctx context.Context, customerID string) ([]domain.CompletedPass, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer_id, purchased_at, completed_at, sessions_count
		FROM completed_pass WHERE customer_id = ? ORDER BY completed_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []domain.CompletedPass
	for rows.Next() {
		var p domain.CompletedPass
		var purchasedStr, completedStr string
		if err := rows.Scan(&p.ID, &p.CustomerID, &purchasedStr, &completedStr, &p.SessionsCount); err != nil {
			return nil, err
		}
		if p.PurchasedAt, err = time.Parse(time.RFC3339, purchasedStr); err != nil {
			return nil, fmt.Errorf("failed to parse purchased_at: %w", err)
		}
		if p.CompletedAt, err = time.Parse(time.RFC3339, completedStr); err != nil {
			return nil, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range passes {
		sessions, err := s.listCompletedSessions(ctx, passes[i].ID)
		if err != nil {
			return nil, err
		}
		passes[i].Sessions = sessions
	}
	return passes, nil
}

func (s *SQLiteStore) listCompletedSessions(ctx context.Context, passID string) ([]domain.CompletedSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_number, class_title, attended_at
		FROM completed_session WHERE completed_pass_id = ? ORDER BY session_number`, passID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.CompletedSession
	for rows.Next() {
		var cs domain.CompletedSession
		var attendedStr string
		if err := rows.Scan(&cs.SessionNumber, &cs.ClassTitle, &attendedStr); err != nil {
			return nil, err
		}
		if cs.AttendedAt, err = time.Parse(time.RFC3339, attendedStr); err != nil {
			return nil, fmt.Errorf("failed to parse attended_at: %w", err)
		}
		sessions = append(sessions, cs)
	}
	return sessions, rows.Err()
}

func listHistoryTx(ctx context.Context, tx *sql.Tx, customerID string) ([]domain.HistoryEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, customer_id, booking_id, session_number, class_title, attended_at
		FROM pass_history WHERE customer_id = ? ORDER BY session_number`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistoryRows(rows)
}

func scanHistoryRows(rows *sql.Rows) ([]domain.HistoryEntry, error) {
	var results []domain.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

func scanHistory(scan func(dest ...any) error) (domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	var attendedStr string
	err := scan(
		&entry.ID,
		&entry.CustomerID,
		&entry.BookingID,
		&entry.SessionNumber,
		&entry.ClassTitle,
		&attendedStr,
	)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	entry.AttendedAt, err = time.Parse(time.RFC3339, attendedStr)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to parse attended_at: %w", err)
	}
	return entry, nil
}

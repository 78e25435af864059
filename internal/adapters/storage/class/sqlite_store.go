package class

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"villagefit/internal/adapters/storage"
	domain "villagefit/internal/domain/class"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new class store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const classColumns = "id, title, start_time, end_time, capacity, location, status, series_id"

// GetByID retrieves a Class by its ID.
// PRE: id is non-empty
// POST: Returns the occurrence or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Class, error) {
	query := "SELECT " + classColumns + " FROM class WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanClass(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Class{}, domain.ErrNotFound
	}
	return entity, err
}

// Save persists a Class to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Class) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO class (id, title, start_time, end_time, capacity, location, status, series_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, start_time=excluded.start_time, end_time=excluded.end_time,
			capacity=excluded.capacity, location=excluded.location, status=excluded.status,
			series_id=excluded.series_id`

	var locationVal, seriesVal any
	if entity.Location != "" {
		locationVal = entity.Location
	}
	if entity.SeriesID != "" {
		seriesVal = entity.SeriesID
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Title,
		formatStoredTime(entity.Start),
		formatStoredTime(entity.End),
		entity.Capacity,
		locationVal,
		entity.Status,
		seriesVal,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves classes based on the filter, ordered by start time.
// PRE: filter has valid parameters
// POST: Returns matching occurrences
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Class, error) {
	query := "SELECT " + classColumns + " FROM class"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY start_time"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return s.queryClasses(ctx, query, args...)
}

// ListUpcoming retrieves scheduled occurrences starting after a time,
// ordered soonest first.
// PRE: after is a valid time
// POST: Returns scheduled future occurrences
func (s *SQLiteStore) ListUpcoming(ctx context.Context, after time.Time) ([]domain.Class, error) {
	query := "SELECT " + classColumns + ` FROM class
		WHERE status = ? AND start_time > ?
		ORDER BY start_time`
	return s.queryClasses(ctx, query, domain.StatusScheduled, formatStoredTime(after))
}

// ListScheduledBySeriesSince retrieves scheduled members of a series
// whose start is at or after a reference time, in week order. This is
// the "this and all future occurrences" selection used by series edits
// and cancellations.
// PRE: seriesID is non-empty
// POST: Returns matching occurrences ordered by start time
func (s *SQLiteStore) ListScheduledBySeriesSince(ctx context.Context, seriesID string, since time.Time) ([]domain.Class, error) {
	query := "SELECT " + classColumns + ` FROM class
		WHERE series_id = ? AND status = ? AND start_time >= ?
		ORDER BY start_time`
	return s.queryClasses(ctx, query, seriesID, domain.StatusScheduled, formatStoredTime(since))
}

func (s *SQLiteStore) queryClasses(ctx context.Context, query string, args ...any) ([]domain.Class, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Class
	for rows.Next() {
		entity, err := scanClass(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanClass(scan func(dest ...any) error) (domain.Class, error) {
	var entity domain.Class
	var startStr, endStr string
	var location, seriesID sql.NullString
	err := scan(
		&entity.ID,
		&entity.Title,
		&startStr,
		&endStr,
		&entity.Capacity,
		&location,
		&entity.Status,
		&seriesID,
	)
	if err != nil {
		return domain.Class{}, err
	}
	if location.Valid {
		entity.Location = location.String
	}
	if seriesID.Valid {
		entity.SeriesID = seriesID.String
	}
	entity.Start, err = parseStoredTime(startStr)
	if err != nil {
		return domain.Class{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	entity.End, err = parseStoredTime(endStr)
	if err != nil {
		return domain.Class{}, fmt.Errorf("failed to parse end_time: %w", err)
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
	return time.Time{}, fmt.Errorf("unsupported time format: %q", strings.TrimSpace(value))
}

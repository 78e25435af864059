package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

var slowQueryMs int64
var slowQueryOnce sync.Once

// getSlowQueryThreshold returns the slow-query threshold in milliseconds.
func getSlowQueryThreshold() float64 {
	slowQueryOnce.Do(func() {
		ms := DefaultSlowQueryMs
		if v := os.Getenv("VILLAGEFIT_SLOW_QUERY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowQueryMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowQueryMs))
}

// TimedDB wraps a *sql.DB to log slow queries via slog.
// Satisfies the SQLDB interface so it can be passed to any store
// constructor.
type TimedDB struct {
	db        *sql.DB
	threshold float64
}

// Compile-time check that *TimedDB satisfies SQLDB.
var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps a *sql.DB with slow-query logging.
// PRE: db is a valid database connection
// POST: Returns a TimedDB that logs queries slower than the threshold
func NewTimedDB(db *sql.DB) *TimedDB {
	return &TimedDB{db: db, threshold: getSlowQueryThreshold()}
}

// RawDB returns the underlying *sql.DB (needed for pool config).
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

func (t *TimedDB) logQuery(op, query string, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if durationMs >= t.threshold {
		slog.Warn("slow_query", "op", op, "duration_ms", durationMs, "query", query)
	}
}

// ExecContext runs a statement and logs it if slow.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	defer t.logQuery("exec", query, start)
	return t.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query and logs it if slow.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	defer t.logQuery("query", query, start)
	return t.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query and logs it if slow.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	defer t.logQuery("query_row", query, start)
	return t.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the underlying connection.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return t.db.BeginTx(ctx, opts)
}

package sessionpass

import (
	"context"
	"time"

	domain "villagefit/internal/domain/sessionpass"
)

// Store persists pass history and completed-pass archives, and owns
// the counter mutations that must move in lockstep with them.
//
// ConsumeSession, RestoreSession and ArchiveAndReset each run their
// read-check-write sequence in one transaction so that two concurrent
// "mark attended" calls for the same booking cannot both decrement the
// pass.
type Store interface {
	// ConsumeSession decrements the customer's remaining counter and
	// inserts a history entry, unless one already exists for the
	// booking. Returns false when the booking was already counted.
	// The entry's SessionNumber is computed post-decrement.
	ConsumeSession(ctx context.Context, entry domain.HistoryEntry) (bool, error)

	// RestoreSession deletes the history entry for a booking and
	// increments the customer's remaining counter. Returns false when
	// no history entry existed.
	RestoreSession(ctx context.Context, bookingID string) (bool, error)

	// ArchiveAndReset snapshots the current history into a
	// CompletedPass (when history exists and a prior purchase date is
	// recorded), clears the live history and resets the counters to
	// sessionCount. Returns the archive, or nil when nothing was
	// archived.
	ArchiveAndReset(ctx context.Context, customerID string, sessionCount int, now time.Time) (*domain.CompletedPass, error)

	ListHistoryByCustomerID(ctx context.Context, customerID string) ([]domain.HistoryEntry, error)
	GetHistoryByBookingID(ctx context.Context, bookingID string) (domain.HistoryEntry, bool, error)
	ListCompletedPasses(ctx context.Context, customerID string) ([]domain.CompletedPass, error)
}

package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"villagefit/internal/domain/booking"
	customerDomain "villagefit/internal/domain/customer"
	"villagefit/internal/domain/sessionpass"
)

// BookingAttendanceStore defines the booking store interface needed
// for attendance marking.
type BookingAttendanceStore interface {
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	Save(ctx context.Context, value booking.Booking) error
}

// SessionLedgerStore defines the session pass store interface the
// attendance flow mutates.
type SessionLedgerStore interface {
	ConsumeSession(ctx context.Context, entry sessionpass.HistoryEntry) (bool, error)
	RestoreSession(ctx context.Context, bookingID string) (bool, error)
}

// CustomerLookupStore defines the customer lookup interface.
type CustomerLookupStore interface {
	GetByEmail(ctx context.Context, email string) (customerDomain.Customer, error)
}

// MarkAttendanceInput carries the attendance transition request.
type MarkAttendanceInput struct {
	BookingID string
	Status    string
}

// MarkAttendanceDeps holds dependencies for attendance marking.
type MarkAttendanceDeps struct {
	BookingStore  BookingAttendanceStore
	ClassStore    ClassReadStore
	CustomerStore CustomerLookupStore
	PassStore     SessionLedgerStore
	GenerateID    func() string
	Now           func() time.Time
}

// MarkAttendanceResult reports the transition and its ledger effect.
type MarkAttendanceResult struct {
	Booking         booking.Booking
	SessionConsumed bool
	SessionRestored bool
}

// ExecuteMarkAttendance transitions a booking's attendance status and
// keeps the session pass ledger in step. Marking attended consumes one
// session and writes a history row; walking an attended mark back
// restores the session and removes the row. Re-marking the current
// status is a no-op, so the ledger never double-counts.
// PRE: Status is one of pending, attended, absent
// POST: Booking carries the new status; customer remaining moved by at
// most one; booking.ErrNotFound, booking.ErrInvalidAttendance or
// customer.ErrNoSessionsRemaining on failure
func ExecuteMarkAttendance(ctx context.Context, input MarkAttendanceInput, deps MarkAttendanceDeps) (MarkAttendanceResult, error) {
	switch input.Status {
	case booking.AttendancePending, booking.AttendanceAttended, booking.AttendanceAbsent:
	default:
		return MarkAttendanceResult{}, booking.ErrInvalidAttendance
	}

	b, err := deps.BookingStore.GetByID(ctx, input.BookingID)
	if err != nil {
		return MarkAttendanceResult{}, err
	}
	if b.AttendanceStatus == input.Status {
		return MarkAttendanceResult{Booking: b}, nil
	}

	var result MarkAttendanceResult
	switch {
	case input.Status == booking.AttendanceAttended:
		consumed, err := consumeForBooking(ctx, deps, b)
		if err != nil {
			return MarkAttendanceResult{}, err
		}
		result.SessionConsumed = consumed
	case b.AttendanceStatus == booking.AttendanceAttended:
		restored, err := deps.PassStore.RestoreSession(ctx, b.ID)
		if err != nil {
			return MarkAttendanceResult{}, err
		}
		result.SessionRestored = restored
	}

	b.AttendanceStatus = input.Status
	if err := deps.BookingStore.Save(ctx, b); err != nil {
		return MarkAttendanceResult{}, err
	}

	slog.Info("attendance_event", "event", "attendance_marked", "booking_id", b.ID,
		"status", input.Status, "session_consumed", result.SessionConsumed,
		"session_restored", result.SessionRestored)
	result.Booking = b
	return result, nil
}

// consumeForBooking builds the history entry for an attended mark and
// runs the atomic consume. A participant without a customer record has
// no ledger, so the mark proceeds without a counter effect.
func consumeForBooking(ctx context.Context, deps MarkAttendanceDeps, b booking.Booking) (bool, error) {
	cust, err := deps.CustomerStore.GetByEmail(ctx, b.CustomerEmail)
	if errors.Is(err, customerDomain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	attendedAt := deps.Now()
	classTitle := ""
	if c, err := deps.ClassStore.GetByID(ctx, b.ClassID); err == nil {
		classTitle = c.Title
		attendedAt = c.Start
	}

	return deps.PassStore.ConsumeSession(ctx, sessionpass.HistoryEntry{
		ID:         deps.GenerateID(),
		CustomerID: cust.ID,
		BookingID:  b.ID,
		ClassTitle: classTitle,
		AttendedAt: attendedAt,
	})
}

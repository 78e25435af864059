package sessionpass

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyCustomerID   = errors.New("history entry must reference a customer")
	ErrEmptyBookingID    = errors.New("history entry must reference a booking")
	ErrInvalidSessionNum = errors.New("session number must be at least 1")
	ErrEmptyPurchaseDate = errors.New("completed pass must carry a purchase date")
)

// HistoryEntry records one consumed session within a customer's
// current pass. Exactly one entry exists per booking (the BookingID is
// unique), which is what makes attendance marking idempotent.
type HistoryEntry struct {
	ID            string
	CustomerID    string
	BookingID     string
	SessionNumber int // 1..PassTotal ordinal within the current pass
	ClassTitle    string
	AttendedAt    time.Time // start date of the attended occurrence
}

// Validate checks if the HistoryEntry has valid data.
// PRE: HistoryEntry struct is populated
// POST: Returns nil if valid, error otherwise
func (h *HistoryEntry) Validate() error {
	if h.CustomerID == "" {
		return ErrEmptyCustomerID
	}
	if h.BookingID == "" {
		return ErrEmptyBookingID
	}
	if h.SessionNumber < 1 {
		return ErrInvalidSessionNum
	}
	return nil
}

// CompletedSession is a snapshot of one consumed session inside an
// archived pass.
type CompletedSession struct {
	SessionNumber int
	ClassTitle    string
	AttendedAt    time.Time
}

// CompletedPass is the immutable archive of a replaced session pass,
// created only when a new pass is purchased and prior history exists.
// Later class cancellations never reach back into an archive.
type CompletedPass struct {
	ID            string
	CustomerID    string
	PurchasedAt   time.Time
	CompletedAt   time.Time
	SessionsCount int
	Sessions      []CompletedSession // ordered by session number
}

// Validate checks if the CompletedPass has valid data.
// PRE: CompletedPass struct is populated
// POST: Returns nil if valid, error otherwise
func (p *CompletedPass) Validate() error {
	if p.CustomerID == "" {
		return ErrEmptyCustomerID
	}
	if p.PurchasedAt.IsZero() {
		return ErrEmptyPurchaseDate
	}
	return nil
}

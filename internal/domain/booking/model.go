package booking

import (
	"errors"
	"strings"
	"time"
)

// Status constants for a booking lifecycle.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Attendance status constants. Pending until a coordinator marks the
// booking after the class runs.
const (
	AttendancePending  = "pending"
	AttendanceAttended = "attended"
	AttendanceAbsent   = "absent"
)

// ValidAttendanceStatuses contains all valid attendance values.
var ValidAttendanceStatuses = []string{AttendancePending, AttendanceAttended, AttendanceAbsent}

// Domain errors
var (
	ErrEmptyClassID          = errors.New("booking must reference a class")
	ErrEmptyCustomerName     = errors.New("customer name cannot be empty")
	ErrEmptyCustomerEmail    = errors.New("customer email cannot be empty")
	ErrInvalidAttendance     = errors.New("attendance status must be pending, attended or absent")
	ErrNotFound              = errors.New("booking not found")
	ErrClassFull             = errors.New("class is fully booked")
	ErrAlreadyBooked         = errors.New("an active booking already exists for this class and email")
	ErrClassCancelledBooking = errors.New("cannot book a cancelled class")
)

// Booking represents one reservation of a seat in a class occurrence.
// Bookings are never deleted; cancellation is a status change that
// frees the seat for future capacity checks.
type Booking struct {
	ID               string
	ClassID          string
	CustomerName     string
	CustomerEmail    string // normalized, see NormalizeEmail
	Village          string
	Status           string // active, cancelled
	CancelToken      string // unguessable, lets the resident cancel without an account
	AttendanceStatus string // pending, attended, absent
	CreatedAt        time.Time
	CancelledAt      time.Time // zero until cancelled
}

// NormalizeEmail trims whitespace and lower-cases an email address.
// All duplicate and lookup checks run on the normalized form, so
// "  Alice@Example.COM " and "alice@example.com" are the same customer.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the Booking has valid data.
// PRE: Booking struct is populated, CustomerEmail already normalized
// POST: Returns nil if valid, error otherwise
func (b *Booking) Validate() error {
	if b.ClassID == "" {
		return ErrEmptyClassID
	}
	if strings.TrimSpace(b.CustomerName) == "" {
		return ErrEmptyCustomerName
	}
	if strings.TrimSpace(b.CustomerEmail) == "" {
		return ErrEmptyCustomerEmail
	}
	if !isValidAttendance(b.AttendanceStatus) {
		return ErrInvalidAttendance
	}
	return nil
}

// IsActive returns true if the booking still holds a seat.
func (b *Booking) IsActive() bool {
	return b.Status == StatusActive
}

// IsCancelled returns true if the booking has been cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

func isValidAttendance(status string) bool {
	for _, s := range ValidAttendanceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

package outbox

import (
	"errors"
	"time"
)

// Status constants for notification entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Notification kinds. Each kind maps to a markdown template.
const (
	KindBookingConfirmation = "booking_confirmation"
	KindBookingCancelled    = "booking_cancelled"
	KindClassCancelled      = "class_cancelled"
	KindPassRenewed         = "pass_renewed"
)

// Domain errors.
var (
	ErrEmptyKind      = errors.New("notification kind is required")
	ErrEmptyRecipient = errors.New("recipient email is required")
	ErrEmptyPayload   = errors.New("payload is required")
)

// Entry is one outbound notification parked for retry. Sends are
// best-effort and never gate the booking or cancellation that
// triggered them; a failed send lands here instead.
type Entry struct {
	ID              string
	Kind            string // booking_confirmation, booking_cancelled, ...
	Recipient       string // customer email
	Payload         string // JSON template data for replay
	Status          string // pending, retrying, done, failed, abandoned
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	LastError       string
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.Kind == "" {
		return ErrEmptyKind
	}
	if e.Recipient == "" {
		return ErrEmptyRecipient
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = 5
	}
	return nil
}

// CanRetry returns true if the entry can be retried.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsTerminal returns true if the entry has reached a terminal state.
func (e *Entry) IsTerminal() bool {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return true
	}
	return e.Status == StatusFailed && e.Attempts >= e.MaxAttempts
}

// MarkAttempt records a retry attempt.
// PRE: Entry is in a retryable state
// POST: Attempts incremented, LastAttemptedAt updated, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.LastError = ""
}

// MarkFailed records the send error; the status drops to failed once
// the attempt budget is exhausted.
func (e *Entry) MarkFailed(err error) {
	e.LastError = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned marks the entry as abandoned by an admin.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

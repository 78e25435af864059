package booking

import (
	"context"
	"time"

	domain "villagefit/internal/domain/booking"
)

// Store persists Booking state.
//
// CreateActive runs the capacity check, the duplicate check and the
// insert as one transaction, so two concurrent requests can never
// oversell the last seat or double-book one email.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Booking, error)
	GetByToken(ctx context.Context, token string) (domain.Booking, error)
	Save(ctx context.Context, value domain.Booking) error
	CreateActive(ctx context.Context, value domain.Booking, capacity int) error
	CountActiveByClassID(ctx context.Context, classID string) (int, error)
	CountActiveGrouped(ctx context.Context) (map[string]int, error)
	ListActiveByClassID(ctx context.Context, classID string) ([]domain.Booking, error)
	CancelActiveByClassID(ctx context.Context, classID string, cancelledAt time.Time) (int, error)
	ListJoinedByEmail(ctx context.Context, email string) ([]JoinedBooking, error)
	ListActiveJoined(ctx context.Context) ([]JoinedBooking, error)
}

// JoinedBooking is a booking joined with the occurrence it reserves,
// used by the customer booking list and the read-side stats.
type JoinedBooking struct {
	Booking     domain.Booking
	ClassTitle  string
	ClassStart  time.Time
	ClassEnd    time.Time
	ClassStatus string
}

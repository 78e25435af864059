package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"villagefit/internal/domain/booking"
	"villagefit/internal/domain/outbox"
)

// BookingCancelStore defines the booking store interface needed for a
// token-based cancellation.
type BookingCancelStore interface {
	GetByToken(ctx context.Context, token string) (booking.Booking, error)
	Save(ctx context.Context, value booking.Booking) error
}

// CancelBookingInput carries the cancel token from the participant's
// email link.
type CancelBookingInput struct {
	Token string
}

// CancelBookingDeps holds dependencies for cancelling a booking.
type CancelBookingDeps struct {
	BookingStore BookingCancelStore
	ClassStore   ClassReadStore
	Notifier     Notifier
	Now          func() time.Time
}

// CancelBookingResult carries the booking after cancellation.
type CancelBookingResult struct {
	Booking booking.Booking
}

// ExecuteCancelBooking cancels a booking identified by its cancel
// token. The operation is idempotent: cancelling an already cancelled
// booking returns it unchanged without a second notification.
// PRE: Token is non-empty
// POST: Booking status is cancelled, or booking.ErrNotFound
func ExecuteCancelBooking(ctx context.Context, input CancelBookingInput, deps CancelBookingDeps) (CancelBookingResult, error) {
	b, err := deps.BookingStore.GetByToken(ctx, input.Token)
	if err != nil {
		return CancelBookingResult{}, err
	}
	if b.Status == booking.StatusCancelled {
		return CancelBookingResult{Booking: b}, nil
	}

	b.Status = booking.StatusCancelled
	b.CancelledAt = deps.Now()
	if err := deps.BookingStore.Save(ctx, b); err != nil {
		return CancelBookingResult{}, err
	}

	if deps.Notifier != nil {
		data := map[string]string{
			"CustomerName": b.CustomerName,
			"ClassTitle":   "your class",
			"ClassDate":    "",
		}
		if c, err := deps.ClassStore.GetByID(ctx, b.ClassID); err == nil {
			data["ClassTitle"] = c.Title
			data["ClassDate"] = c.Start.Format("Monday 2 January 2006")
		}
		deps.Notifier.Notify(ctx, outbox.KindBookingCancelled, b.CustomerEmail, data)
	}

	slog.Info("booking_event", "event", "booking_cancelled", "booking_id", b.ID, "class_id", b.ClassID)
	return CancelBookingResult{Booking: b}, nil
}

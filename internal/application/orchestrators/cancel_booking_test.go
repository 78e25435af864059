package orchestrators

import (
	"context"
	"errors"
	"testing"

	bookingDomain "villagefit/internal/domain/booking"
	"villagefit/internal/domain/outbox"
)

// TestExecuteCancelBooking_Valid tests a token cancellation with the
// cancellation notification.
func TestExecuteCancelBooking_Valid(t *testing.T) {
	classes := newMockClassStore()
	bookings := newMockBookingStore()
	notifier := &mockNotifier{}
	seedClass(classes, "c1", 12)
	bookings.bookings["b1"] = bookingDomain.Booking{
		ID: "b1", ClassID: "c1", CustomerName: "Alice", CustomerEmail: "alice@example.com",
		Status: bookingDomain.StatusActive, CancelToken: "tok-1",
	}

	result, err := ExecuteCancelBooking(context.Background(), CancelBookingInput{Token: "tok-1"}, CancelBookingDeps{
		BookingStore: bookings,
		ClassStore:   classes,
		Notifier:     notifier,
		Now:          fixedNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Booking.Status != bookingDomain.StatusCancelled {
		t.Errorf("expected cancelled, got %s", result.Booking.Status)
	}
	if !result.Booking.CancelledAt.Equal(fixedTime) {
		t.Error("expected cancelledAt set to now")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Kind != outbox.KindBookingCancelled {
		t.Errorf("expected one booking_cancelled notification, got %+v", notifier.sent)
	}
}

// TestExecuteCancelBooking_DoubleCancel tests that a second cancel by
// the same token succeeds without side effects.
func TestExecuteCancelBooking_DoubleCancel(t *testing.T) {
	classes := newMockClassStore()
	bookings := newMockBookingStore()
	notifier := &mockNotifier{}
	seedClass(classes, "c1", 12)
	bookings.bookings["b1"] = bookingDomain.Booking{
		ID: "b1", ClassID: "c1", CustomerName: "Alice", CustomerEmail: "alice@example.com",
		Status: bookingDomain.StatusActive, CancelToken: "tok-1",
	}
	deps := CancelBookingDeps{
		BookingStore: bookings,
		ClassStore:   classes,
		Notifier:     notifier,
		Now:          fixedNow,
	}

	first, err := ExecuteCancelBooking(context.Background(), CancelBookingInput{Token: "tok-1"}, deps)
	if err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	second, err := ExecuteCancelBooking(context.Background(), CancelBookingInput{Token: "tok-1"}, deps)
	if err != nil {
		t.Fatalf("second cancel failed: %v", err)
	}
	if second.Booking.Status != bookingDomain.StatusCancelled {
		t.Errorf("expected cancelled, got %s", second.Booking.Status)
	}
	if !first.Booking.CancelledAt.Equal(second.Booking.CancelledAt) {
		t.Error("expected cancelledAt unchanged on second cancel")
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected exactly one notification, got %d", len(notifier.sent))
	}
}

// TestExecuteCancelBooking_UnknownToken tests an unknown cancel token.
func TestExecuteCancelBooking_UnknownToken(t *testing.T) {
	_, err := ExecuteCancelBooking(context.Background(), CancelBookingInput{Token: "ghost"}, CancelBookingDeps{
		BookingStore: newMockBookingStore(),
		ClassStore:   newMockClassStore(),
		Now:          fixedNow,
	})
	if !errors.Is(err, bookingDomain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

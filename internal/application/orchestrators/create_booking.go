package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"villagefit/internal/domain/booking"
	"villagefit/internal/domain/class"
	customerDomain "villagefit/internal/domain/customer"
	"villagefit/internal/domain/outbox"
)

// Booking input validation errors.
var (
	ErrEmptyCustomerName  = errors.New("customer name cannot be empty")
	ErrEmptyCustomerEmail = errors.New("customer email cannot be empty")
)

// BookingCreateStore defines the booking store interface needed to
// place a booking.
type BookingCreateStore interface {
	CreateActive(ctx context.Context, value booking.Booking, capacity int) error
}

// CustomerUpsertStore defines the customer store interface needed to
// auto-create participants on first booking.
type CustomerUpsertStore interface {
	GetByEmail(ctx context.Context, email string) (customerDomain.Customer, error)
	Save(ctx context.Context, value customerDomain.Customer) error
}

// ClassReadStore defines the minimal class lookup interface.
type ClassReadStore interface {
	GetByID(ctx context.Context, id string) (class.Class, error)
}

// CreateBookingInput carries the participant's booking request.
type CreateBookingInput struct {
	ClassID       string
	CustomerName  string
	CustomerEmail string
	Village       string
}

// CreateBookingDeps holds dependencies for placing a booking.
type CreateBookingDeps struct {
	ClassStore    ClassReadStore
	BookingStore  BookingCreateStore
	CustomerStore CustomerUpsertStore
	Notifier      Notifier
	BaseURL       string
	GenerateID    func() string
	Now           func() time.Time
}

// CreateBookingResult carries the created booking.
type CreateBookingResult struct {
	Booking booking.Booking
}

// ExecuteCreateBooking books a participant into a class. The email
// address identifies the participant: it is normalized before any
// lookup, and a customer record is created on first contact so the
// session pass ledger has somewhere to live. Capacity and duplicate
// checks happen atomically in the store.
// PRE: ClassID, CustomerName and CustomerEmail are non-empty
// POST: An active booking with a fresh cancel token exists, or one of
// class.ErrNotFound, booking.ErrClassCancelledBooking,
// booking.ErrClassFull, booking.ErrAlreadyBooked
func ExecuteCreateBooking(ctx context.Context, input CreateBookingInput, deps CreateBookingDeps) (CreateBookingResult, error) {
	if input.CustomerName == "" {
		return CreateBookingResult{}, ErrEmptyCustomerName
	}
	if input.CustomerEmail == "" {
		return CreateBookingResult{}, ErrEmptyCustomerEmail
	}

	c, err := deps.ClassStore.GetByID(ctx, input.ClassID)
	if err != nil {
		return CreateBookingResult{}, err
	}
	if c.IsCancelled() {
		return CreateBookingResult{}, booking.ErrClassCancelledBooking
	}

	email := booking.NormalizeEmail(input.CustomerEmail)
	now := deps.Now()

	if err := upsertCustomer(ctx, deps, input, email); err != nil {
		return CreateBookingResult{}, err
	}

	b := booking.Booking{
		ID:               deps.GenerateID(),
		ClassID:          c.ID,
		CustomerName:     input.CustomerName,
		CustomerEmail:    email,
		Village:          input.Village,
		Status:           booking.StatusActive,
		CancelToken:      deps.GenerateID(),
		AttendanceStatus: booking.AttendancePending,
		CreatedAt:        now,
	}
	if err := deps.BookingStore.CreateActive(ctx, b, c.Capacity); err != nil {
		return CreateBookingResult{}, err
	}

	if deps.Notifier != nil {
		deps.Notifier.Notify(ctx, outbox.KindBookingConfirmation, email, map[string]string{
			"CustomerName": b.CustomerName,
			"ClassTitle":   c.Title,
			"ClassDate":    c.Start.Format("Monday 2 January 2006"),
			"ClassTime":    c.Start.Format("3:04pm"),
			"Location":     c.Location,
			"CancelURL":    fmt.Sprintf("%s/bookings/cancel/%s", deps.BaseURL, b.CancelToken),
		})
	}

	slog.Info("booking_event", "event", "booking_created", "booking_id", b.ID,
		"class_id", c.ID, "customer_email", email)
	return CreateBookingResult{Booking: b}, nil
}

// upsertCustomer creates the customer on first booking and refreshes
// name and village on later ones, so the latest contact details win.
func upsertCustomer(ctx context.Context, deps CreateBookingDeps, input CreateBookingInput, email string) error {
	existing, err := deps.CustomerStore.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, customerDomain.ErrNotFound):
		return deps.CustomerStore.Save(ctx, customerDomain.Customer{
			ID:      deps.GenerateID(),
			Name:    input.CustomerName,
			Email:   email,
			Village: input.Village,
		})
	case err != nil:
		return err
	}

	changed := false
	if input.CustomerName != "" && existing.Name != input.CustomerName {
		existing.Name = input.CustomerName
		changed = true
	}
	if input.Village != "" && existing.Village != input.Village {
		existing.Village = input.Village
		changed = true
	}
	if !changed {
		return nil
	}
	return deps.CustomerStore.Save(ctx, existing)
}

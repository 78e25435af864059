package projections

import (
	"context"
	"time"

	bookingStore "villagefit/internal/adapters/storage/booking"
	domainBooking "villagefit/internal/domain/booking"
	domainClass "villagefit/internal/domain/class"
	domainCustomer "villagefit/internal/domain/customer"
	domainSessionPass "villagefit/internal/domain/sessionpass"
)

var statsNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// mockJoinedBookingStore serves the read-side projections from a
// slice of pre-joined bookings.
type mockJoinedBookingStore struct {
	joined []bookingStore.JoinedBooking
}

func (m *mockJoinedBookingStore) ListActiveJoined(_ context.Context) ([]bookingStore.JoinedBooking, error) {
	var out []bookingStore.JoinedBooking
	for _, j := range m.joined {
		if j.Booking.Status == domainBooking.StatusActive {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *mockJoinedBookingStore) ListJoinedByEmail(_ context.Context, email string) ([]bookingStore.JoinedBooking, error) {
	var out []bookingStore.JoinedBooking
	for _, j := range m.joined {
		if domainBooking.NormalizeEmail(j.Booking.CustomerEmail) == email {
			out = append(out, j)
		}
	}
	// Newest class start first, matching the real store's ordering.
	for i := 0; i < len(out); i++ {
		for k := i + 1; k < len(out); k++ {
			if out[k].ClassStart.After(out[i].ClassStart) {
				out[i], out[k] = out[k], out[i]
			}
		}
	}
	return out, nil
}

func (m *mockJoinedBookingStore) CountActiveGrouped(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, j := range m.joined {
		if j.Booking.Status == domainBooking.StatusActive {
			counts[j.Booking.ClassID]++
		}
	}
	return counts, nil
}

// attendedAt builds an active, attended joined booking for a class
// that started at the given time.
func attendedAt(email, name, village, title string, start time.Time) bookingStore.JoinedBooking {
	return bookingStore.JoinedBooking{
		Booking: domainBooking.Booking{
			ID:            email + title + start.Format("2006-01-02"),
			ClassID:       "class-" + title,
			CustomerName:  name,
			CustomerEmail: email,
			Village:       village,
			Status:        domainBooking.StatusActive,
		},
		ClassTitle:  title,
		ClassStart:  start,
		ClassEnd:    start.Add(time.Hour),
		ClassStatus: domainClass.StatusScheduled,
	}
}

// mockStatsCustomerStore implements the customer store interfaces used
// by the projections.
type mockStatsCustomerStore struct {
	customers map[string]domainCustomer.Customer // keyed by email
}

func (m *mockStatsCustomerStore) GetByEmail(_ context.Context, email string) (domainCustomer.Customer, error) {
	c, ok := m.customers[email]
	if !ok {
		return domainCustomer.Customer{}, domainCustomer.ErrNotFound
	}
	return c, nil
}

func (m *mockStatsCustomerStore) ListExpiredPasses(_ context.Context) ([]domainCustomer.Customer, error) {
	var out []domainCustomer.Customer
	for _, c := range m.customers {
		if c.IsPassExpired() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStatsCustomerStore) ListLowBalancePasses(_ context.Context) ([]domainCustomer.Customer, error) {
	var out []domainCustomer.Customer
	for _, c := range m.customers {
		if c.IsLowBalance() {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockStatsPassStore implements StatsPassStore.
type mockStatsPassStore struct {
	history map[string][]domainSessionPass.HistoryEntry // keyed by customer ID
}

func (m *mockStatsPassStore) ListHistoryByCustomerID(_ context.Context, customerID string) ([]domainSessionPass.HistoryEntry, error) {
	return m.history[customerID], nil
}

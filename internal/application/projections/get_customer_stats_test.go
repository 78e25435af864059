package projections

import (
	"context"
	"testing"

	bookingStore "villagefit/internal/adapters/storage/booking"
	domainCustomer "villagefit/internal/domain/customer"
	domainSessionPass "villagefit/internal/domain/sessionpass"
)

func statsDeps(bookings *mockJoinedBookingStore, customers *mockStatsCustomerStore, passes *mockStatsPassStore) GetCustomerStatsDeps {
	if customers == nil {
		customers = &mockStatsCustomerStore{customers: map[string]domainCustomer.Customer{}}
	}
	return GetCustomerStatsDeps{
		BookingStore:  bookings,
		CustomerStore: customers,
		PassStore:     passes,
	}
}

// TestQueryGetCustomerStats_Totals tests the attended count, favorite
// class and rank.
func TestQueryGetCustomerStats_Totals(t *testing.T) {
	lastWeek := statsNow.AddDate(0, 0, -7)
	bookings := &mockJoinedBookingStore{joined: []bookingStore.JoinedBooking{
		attendedAt("alice@example.com", "Alice", "Kauri Grove", "Chair Yoga", lastWeek),
		attendedAt("alice@example.com", "Alice", "Kauri Grove", "Chair Yoga", lastWeek.AddDate(0, 0, -7)),
		attendedAt("alice@example.com", "Alice", "Kauri Grove", "Aqua Aerobics", lastWeek.AddDate(0, 0, 1)),
		attendedAt("bob@example.com", "Bob", "", "Chair Yoga", lastWeek),
	}}

	result, err := QueryGetCustomerStats(context.Background(), GetCustomerStatsQuery{
		Email: "Alice@Example.com",
		Now:   statsNow,
	}, statsDeps(bookings, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalAttended != 3 {
		t.Errorf("expected 3 attended, got %d", result.TotalAttended)
	}
	if result.FavoriteClass != "Chair Yoga" {
		t.Errorf("expected favorite Chair Yoga, got %q", result.FavoriteClass)
	}
	if !result.Ranked || result.Rank != 1 {
		t.Errorf("expected rank 1, got %d (ranked=%v)", result.Rank, result.Ranked)
	}
	if result.HasCustomer {
		t.Error("expected no customer record in this fixture")
	}
}

// TestQueryGetCustomerStats_StreakConsecutiveWeeks tests an unbroken
// three-week streak ending last week.
func TestQueryGetCustomerStats_StreakConsecutiveWeeks(t *testing.T) {
	lastWeek := statsNow.AddDate(0, 0, -7)
	bookings := &mockJoinedBookingStore{joined: []bookingStore.JoinedBooking{
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek),
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek.AddDate(0, 0, -7)),
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek.AddDate(0, 0, -14)),
	}}

	result, err := QueryGetCustomerStats(context.Background(), GetCustomerStatsQuery{
		Email: "alice@example.com", Now: statsNow,
	}, statsDeps(bookings, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StreakWeeks != 3 {
		t.Errorf("expected 3-week streak, got %d", result.StreakWeeks)
	}
}

// TestQueryGetCustomerStats_StreakBrokenByGap tests that a gap of more
// than one week zeroes the streak.
func TestQueryGetCustomerStats_StreakBrokenByGap(t *testing.T) {
	threeWeeksAgo := statsNow.AddDate(0, 0, -21)
	bookings := &mockJoinedBookingStore{joined: []bookingStore.JoinedBooking{
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", threeWeeksAgo),
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", threeWeeksAgo.AddDate(0, 0, -7)),
	}}

	result, err := QueryGetCustomerStats(context.Background(), GetCustomerStatsQuery{
		Email: "alice@example.com", Now: statsNow,
	}, statsDeps(bookings, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StreakWeeks != 0 {
		t.Errorf("expected broken streak, got %d", result.StreakWeeks)
	}
}

// TestQueryGetCustomerStats_StreakCountsMidGap tests that the streak
// counts backwards from the latest attended week and stops at the
// first missed week.
func TestQueryGetCustomerStats_StreakCountsMidGap(t *testing.T) {
	lastWeek := statsNow.AddDate(0, 0, -7)
	bookings := &mockJoinedBookingStore{joined: []bookingStore.JoinedBooking{
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek),
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek.AddDate(0, 0, -7)),
		// Two-week gap, then an older cluster that must not count.
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek.AddDate(0, 0, -28)),
	}}

	result, err := QueryGetCustomerStats(context.Background(), GetCustomerStatsQuery{
		Email: "alice@example.com", Now: statsNow,
	}, statsDeps(bookings, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StreakWeeks != 2 {
		t.Errorf("expected 2-week streak, got %d", result.StreakWeeks)
	}
}

// TestQueryGetCustomerStats_PassDetails tests that the customer record
// and pass history ride along when present.
func TestQueryGetCustomerStats_PassDetails(t *testing.T) {
	lastWeek := statsNow.AddDate(0, 0, -7)
	bookings := &mockJoinedBookingStore{joined: []bookingStore.JoinedBooking{
		attendedAt("alice@example.com", "Alice", "", "Chair Yoga", lastWeek),
	}}
	customers := &mockStatsCustomerStore{customers: map[string]domainCustomer.Customer{
		"alice@example.com": {
			ID: "cust-1", Name: "Alice", Email: "alice@example.com",
			PassRemaining: 9, PassTotal: 10, PassPurchasedAt: statsNow.AddDate(0, -1, 0),
		},
	}}
	passes := &mockStatsPassStore{history: map[string][]domainSessionPass.HistoryEntry{
		"cust-1": {{ID: "h1", CustomerID: "cust-1", BookingID: "b1", SessionNumber: 1, ClassTitle: "Chair Yoga", AttendedAt: lastWeek}},
	}}

	result, err := QueryGetCustomerStats(context.Background(), GetCustomerStatsQuery{
		Email: "alice@example.com", Now: statsNow,
	}, statsDeps(bookings, customers, passes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasCustomer {
		t.Fatal("expected customer record")
	}
	if result.Customer.PassRemaining != 9 {
		t.Errorf("expected 9 remaining, got %d", result.Customer.PassRemaining)
	}
	if len(result.PassHistory) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(result.PassHistory))
	}
}

// TestQueryGetCustomerStats_NoBookings tests the empty stats page.
func TestQueryGetCustomerStats_NoBookings(t *testing.T) {
	bookings := &mockJoinedBookingStore{}
	result, err := QueryGetCustomerStats(context.Background(), GetCustomerStatsQuery{
		Email: "ghost@example.com", Now: statsNow,
	}, statsDeps(bookings, nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalAttended != 0 || result.StreakWeeks != 0 || result.Ranked {
		t.Errorf("expected empty stats, got %+v", result)
	}
}

package projections

import (
	"context"
	"errors"
	"time"

	bookingStore "villagefit/internal/adapters/storage/booking"
	domainBooking "villagefit/internal/domain/booking"
	domainCustomer "villagefit/internal/domain/customer"
	"villagefit/internal/domain/dates"
	domainSessionPass "villagefit/internal/domain/sessionpass"
)

// StatsBookingStore defines the booking store interface needed by the
// customer stats projection.
type StatsBookingStore interface {
	ListJoinedByEmail(ctx context.Context, email string) ([]bookingStore.JoinedBooking, error)
	ListActiveJoined(ctx context.Context) ([]bookingStore.JoinedBooking, error)
}

// StatsCustomerStore defines the customer store interface needed by
// the customer stats projection.
type StatsCustomerStore interface {
	GetByEmail(ctx context.Context, email string) (domainCustomer.Customer, error)
}

// StatsPassStore defines the session pass store interface needed by
// the customer stats projection.
type StatsPassStore interface {
	ListHistoryByCustomerID(ctx context.Context, customerID string) ([]domainSessionPass.HistoryEntry, error)
}

// GetCustomerStatsQuery carries input for the customer stats
// projection.
type GetCustomerStatsQuery struct {
	Email string
	Now   time.Time // optional: if zero, time.Now() is used
}

// GetCustomerStatsResult carries a customer's stats page.
type GetCustomerStatsResult struct {
	Customer      domainCustomer.Customer
	HasCustomer   bool
	Bookings      []bookingStore.JoinedBooking
	TotalAttended int
	StreakWeeks   int
	FavoriteClass string
	Rank          int  // 1-based leaderboard position
	Ranked        bool // false when the customer has no attendance
	PassHistory   []domainSessionPass.HistoryEntry
}

// GetCustomerStatsDeps holds dependencies for the customer stats
// projection.
type GetCustomerStatsDeps struct {
	BookingStore  StatsBookingStore
	CustomerStore StatsCustomerStore
	PassStore     StatsPassStore
}

// QueryGetCustomerStats assembles one customer's attendance stats:
// total classes attended, current weekly streak, favorite class and
// leaderboard rank, plus the booking and pass history behind them.
// PRE: query.Email is non-empty
// POST: Counts derive from live booking state, never cached
func QueryGetCustomerStats(ctx context.Context, query GetCustomerStatsQuery, deps GetCustomerStatsDeps) (GetCustomerStatsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	email := domainBooking.NormalizeEmail(query.Email)

	var result GetCustomerStatsResult

	bookings, err := deps.BookingStore.ListJoinedByEmail(ctx, email)
	if err != nil {
		return GetCustomerStatsResult{}, err
	}
	result.Bookings = bookings

	attended := attendedBookings(bookings, now)
	result.TotalAttended = len(attended)
	result.StreakWeeks = weeklyStreak(attended, now)
	result.FavoriteClass = favoriteClass(attended)

	rank, ranked, err := CustomerRank(ctx, email, now, GetLeaderboardDeps{BookingStore: deps.BookingStore})
	if err != nil {
		return GetCustomerStatsResult{}, err
	}
	result.Rank = rank
	result.Ranked = ranked

	cust, err := deps.CustomerStore.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domainCustomer.ErrNotFound):
		// A participant who has never booked has no customer record;
		// the stats page still renders from bookings alone.
	case err != nil:
		return GetCustomerStatsResult{}, err
	default:
		result.Customer = cust
		result.HasCustomer = true
		if deps.PassStore != nil {
			history, err := deps.PassStore.ListHistoryByCustomerID(ctx, cust.ID)
			if err != nil {
				return GetCustomerStatsResult{}, err
			}
			result.PassHistory = history
		}
	}

	return result, nil
}

// attendedBookings filters to active bookings whose occurrence has
// started and was not cancelled.
func attendedBookings(joined []bookingStore.JoinedBooking, now time.Time) []bookingStore.JoinedBooking {
	var out []bookingStore.JoinedBooking
	for _, j := range joined {
		if j.Booking.Status != domainBooking.StatusActive {
			continue
		}
		if !countsAsAttendance(j, now) {
			continue
		}
		out = append(out, j)
	}
	return out
}

// weeklyStreak counts consecutive attended weeks ending at the current
// or immediately preceding week. One missed week breaks the streak.
func weeklyStreak(attended []bookingStore.JoinedBooking, now time.Time) int {
	weeks := make(map[int64]bool)
	for _, j := range attended {
		weeks[dates.WeekIndex(j.ClassStart)] = true
	}
	if len(weeks) == 0 {
		return 0
	}

	var latest int64
	first := true
	for w := range weeks {
		if first || w > latest {
			latest = w
			first = false
		}
	}

	currentWeek := dates.WeekIndex(now)
	if latest < currentWeek-1 {
		return 0
	}

	streak := 0
	for w := latest; weeks[w]; w-- {
		streak++
	}
	return streak
}

// favoriteClass returns the title attended most often; the first title
// encountered wins ties. Bookings arrive newest class first, so "first
// encountered" is the most recent.
func favoriteClass(attended []bookingStore.JoinedBooking) string {
	counts := make(map[string]int)
	var order []string
	for _, j := range attended {
		if _, ok := counts[j.ClassTitle]; !ok {
			order = append(order, j.ClassTitle)
		}
		counts[j.ClassTitle]++
	}

	favorite := ""
	best := 0
	for _, title := range order {
		if counts[title] > best {
			favorite = title
			best = counts[title]
		}
	}
	return favorite
}

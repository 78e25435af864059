package projections

import (
	"context"
	"sort"
	"time"

	bookingStore "villagefit/internal/adapters/storage/booking"
	domainBooking "villagefit/internal/domain/booking"
	domainClass "villagefit/internal/domain/class"
)

// LeaderboardBookingStore defines the booking store interface needed
// by the leaderboard projection.
type LeaderboardBookingStore interface {
	ListActiveJoined(ctx context.Context) ([]bookingStore.JoinedBooking, error)
}

// GetLeaderboardQuery carries input for the leaderboard projection.
type GetLeaderboardQuery struct {
	Limit int       // optional: 0 means no truncation
	Now   time.Time // optional: if zero, time.Now() is used
}

// LeaderboardEntry is one customer's standing.
type LeaderboardEntry struct {
	Name    string
	Email   string
	Village string
	Count   int
}

// GetLeaderboardDeps holds dependencies for the leaderboard
// projection.
type GetLeaderboardDeps struct {
	BookingStore LeaderboardBookingStore
}

// QueryGetLeaderboard ranks customers by classes attended. A class
// counts once it has started, as long as it was not cancelled and the
// booking is still active. Ties keep first-booked order.
// PRE: BookingStore is wired
// POST: Entries sorted by count descending, truncated to Limit
func QueryGetLeaderboard(ctx context.Context, query GetLeaderboardQuery, deps GetLeaderboardDeps) ([]LeaderboardEntry, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	joined, err := deps.BookingStore.ListActiveJoined(ctx)
	if err != nil {
		return nil, err
	}

	entries := attendanceCounts(joined, now)
	if query.Limit > 0 && len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}
	return entries, nil
}

// attendanceCounts aggregates the joined bookings into per-customer
// counts, keyed on normalized email. The display name and village come
// from the first booking seen; a village appearing later backfills an
// empty one.
func attendanceCounts(joined []bookingStore.JoinedBooking, now time.Time) []LeaderboardEntry {
	byEmail := make(map[string]*LeaderboardEntry)
	var order []string

	for _, j := range joined {
		if !countsAsAttendance(j, now) {
			continue
		}
		email := domainBooking.NormalizeEmail(j.Booking.CustomerEmail)
		entry, ok := byEmail[email]
		if !ok {
			entry = &LeaderboardEntry{
				Name:    j.Booking.CustomerName,
				Email:   email,
				Village: j.Booking.Village,
			}
			byEmail[email] = entry
			order = append(order, email)
		}
		if entry.Village == "" && j.Booking.Village != "" {
			entry.Village = j.Booking.Village
		}
		entry.Count++
	}

	entries := make([]LeaderboardEntry, 0, len(order))
	for _, email := range order {
		entries = append(entries, *byEmail[email])
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	return entries
}

// countsAsAttendance reports whether a joined booking contributes to
// the attendance count: the occurrence has started and was not
// cancelled.
func countsAsAttendance(j bookingStore.JoinedBooking, now time.Time) bool {
	if j.ClassStatus == domainClass.StatusCancelled {
		return false
	}
	return j.ClassStart.Before(now)
}

// CustomerRank returns the 1-based leaderboard position for an email,
// matching on normalized email in the untruncated leaderboard. The
// second return is false for a customer with no attendance.
func CustomerRank(ctx context.Context, email string, now time.Time, deps GetLeaderboardDeps) (int, bool, error) {
	entries, err := QueryGetLeaderboard(ctx, GetLeaderboardQuery{Now: now}, deps)
	if err != nil {
		return 0, false, err
	}
	target := domainBooking.NormalizeEmail(email)
	for i, entry := range entries {
		if entry.Email == target {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

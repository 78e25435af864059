package projections

import (
	"context"
	"time"

	domainClass "villagefit/internal/domain/class"
)

// TimetableClassStore defines the class store interface needed by the
// timetable projection.
type TimetableClassStore interface {
	ListUpcoming(ctx context.Context, after time.Time) ([]domainClass.Class, error)
}

// TimetableBookingStore defines the booking store interface needed by
// the timetable projection.
type TimetableBookingStore interface {
	CountActiveGrouped(ctx context.Context) (map[string]int, error)
}

// GetTimetableQuery carries input for the timetable projection.
type GetTimetableQuery struct {
	Now time.Time // optional: if zero, time.Now() is used
}

// TimetableEntry is one upcoming occurrence with its live availability.
type TimetableEntry struct {
	Class     domainClass.Class
	Booked    int
	SpotsLeft int
}

// GetTimetableDeps holds dependencies for the timetable projection.
type GetTimetableDeps struct {
	ClassStore   TimetableClassStore
	BookingStore TimetableBookingStore
}

// QueryGetTimetable lists upcoming scheduled occurrences with spots
// left computed from the live booking counts, never cached.
// PRE: Stores are wired
// POST: Entries in start order; spotsLeft clamped at zero
func QueryGetTimetable(ctx context.Context, query GetTimetableQuery, deps GetTimetableDeps) ([]TimetableEntry, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	classes, err := deps.ClassStore.ListUpcoming(ctx, now)
	if err != nil {
		return nil, err
	}
	booked, err := deps.BookingStore.CountActiveGrouped(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]TimetableEntry, 0, len(classes))
	for _, c := range classes {
		count := booked[c.ID]
		entries = append(entries, TimetableEntry{
			Class:     c,
			Booked:    count,
			SpotsLeft: c.SpotsLeft(count),
		})
	}
	return entries, nil
}

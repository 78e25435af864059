package orchestrators

import (
	"context"
	"log/slog"
	"time"

	bookingDomain "villagefit/internal/domain/booking"
	"villagefit/internal/domain/class"
	"villagefit/internal/domain/outbox"
)

// ClassCancelStore defines the class store interface needed for
// cancellations.
type ClassCancelStore interface {
	GetByID(ctx context.Context, id string) (class.Class, error)
	Save(ctx context.Context, value class.Class) error
	ListScheduledBySeriesSince(ctx context.Context, seriesID string, since time.Time) ([]class.Class, error)
}

// BookingCascadeStore defines the booking store interface needed to
// cascade a class cancellation onto its active bookings.
type BookingCascadeStore interface {
	ListActiveByClassID(ctx context.Context, classID string) ([]bookingDomain.Booking, error)
	CancelActiveByClassID(ctx context.Context, classID string, cancelledAt time.Time) (int, error)
}

// CancelOccurrenceInput carries input for cancelling one occurrence.
type CancelOccurrenceInput struct {
	ClassID string
}

// CancelClassDeps holds dependencies for occurrence and series
// cancellation.
type CancelClassDeps struct {
	ClassStore   ClassCancelStore
	BookingStore BookingCascadeStore
	Notifier     Notifier
	Now          func() time.Time
}

// CancelOccurrenceResult reports the cascade outcome.
type CancelOccurrenceResult struct {
	BookingsCancelled int
}

// ExecuteCancelOccurrence cancels a single occurrence and cascades the
// cancellation onto its active bookings. Affected participants are
// notified best-effort. Cancelling an already cancelled class is a
// no-op.
// PRE: ClassID is non-empty
// POST: Class status is cancelled, no active bookings remain for it
func ExecuteCancelOccurrence(ctx context.Context, input CancelOccurrenceInput, deps CancelClassDeps) (CancelOccurrenceResult, error) {
	c, err := deps.ClassStore.GetByID(ctx, input.ClassID)
	if err != nil {
		return CancelOccurrenceResult{}, err
	}
	if c.IsCancelled() {
		return CancelOccurrenceResult{}, nil
	}

	affected, err := deps.BookingStore.ListActiveByClassID(ctx, c.ID)
	if err != nil {
		return CancelOccurrenceResult{}, err
	}

	c.Status = class.StatusCancelled
	if err := deps.ClassStore.Save(ctx, c); err != nil {
		return CancelOccurrenceResult{}, err
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	cancelled, err := deps.BookingStore.CancelActiveByClassID(ctx, c.ID, now)
	if err != nil {
		return CancelOccurrenceResult{}, err
	}

	if deps.Notifier != nil {
		for _, b := range affected {
			deps.Notifier.Notify(ctx, outbox.KindClassCancelled, b.CustomerEmail, map[string]string{
				"CustomerName": b.CustomerName,
				"ClassTitle":   c.Title,
				"ClassDate":    c.Start.Format("Monday 2 January 2006"),
			})
		}
	}

	slog.Info("class_event", "event", "occurrence_cancelled", "class_id", c.ID, "bookings_cancelled", cancelled)
	return CancelOccurrenceResult{BookingsCancelled: cancelled}, nil
}

// CancelSeriesInput carries input for cancelling the future members of
// a recurring series, anchored at the reference occurrence.
type CancelSeriesInput struct {
	ReferenceID string
}

// CancelSeriesResult reports the series cascade outcome.
type CancelSeriesResult struct {
	ClassesCancelled  int
	BookingsCancelled int
}

// ExecuteCancelSeries cancels the reference occurrence and every
// scheduled sibling at or after it, cascading bookings per occurrence.
// PRE: ReferenceID is non-empty
// POST: Returns counts, class.ErrNotRecurring for a one-off class
func ExecuteCancelSeries(ctx context.Context, input CancelSeriesInput, deps CancelClassDeps) (CancelSeriesResult, error) {
	ref, err := deps.ClassStore.GetByID(ctx, input.ReferenceID)
	if err != nil {
		return CancelSeriesResult{}, err
	}
	if ref.SeriesID == "" {
		return CancelSeriesResult{}, class.ErrNotRecurring
	}

	siblings, err := deps.ClassStore.ListScheduledBySeriesSince(ctx, ref.SeriesID, ref.Start)
	if err != nil {
		return CancelSeriesResult{}, err
	}

	var result CancelSeriesResult
	for _, sibling := range siblings {
		occ, err := ExecuteCancelOccurrence(ctx, CancelOccurrenceInput{ClassID: sibling.ID}, deps)
		if err != nil {
			return result, err
		}
		result.ClassesCancelled++
		result.BookingsCancelled += occ.BookingsCancelled
	}

	slog.Info("class_event", "event", "series_cancelled", "series_id", ref.SeriesID,
		"classes_cancelled", result.ClassesCancelled, "bookings_cancelled", result.BookingsCancelled)
	return result, nil
}

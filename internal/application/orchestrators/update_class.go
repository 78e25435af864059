package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"villagefit/internal/domain/class"
	"villagefit/internal/domain/dates"
)

// ClassUpdateStore defines the class store interface needed for edits.
type ClassUpdateStore interface {
	GetByID(ctx context.Context, id string) (class.Class, error)
	Save(ctx context.Context, value class.Class) error
	ListScheduledBySeriesSince(ctx context.Context, seriesID string, since time.Time) ([]class.Class, error)
}

// ClassPatch carries the optional field updates for an occurrence.
// Nil fields are left untouched.
type ClassPatch struct {
	Title    *string
	Start    *time.Time
	End      *time.Time
	Capacity *int
	Location *string
}

// UpdateOccurrenceInput carries input for a single-occurrence edit.
type UpdateOccurrenceInput struct {
	ClassID string
	Patch   ClassPatch
}

// UpdateClassDeps holds dependencies for occurrence and series edits.
type UpdateClassDeps struct {
	ClassStore ClassUpdateStore
}

// ExecuteUpdateOccurrence applies a field patch to one occurrence.
// PRE: ClassID is non-empty
// POST: Occurrence updated and persisted, or class.ErrNotFound
func ExecuteUpdateOccurrence(ctx context.Context, input UpdateOccurrenceInput, deps UpdateClassDeps) (class.Class, error) {
	c, err := deps.ClassStore.GetByID(ctx, input.ClassID)
	if err != nil {
		return class.Class{}, err
	}

	applyPatch(&c, input.Patch)
	if err := c.Validate(); err != nil {
		return class.Class{}, err
	}
	if err := deps.ClassStore.Save(ctx, c); err != nil {
		return class.Class{}, err
	}

	slog.Info("class_event", "event", "occurrence_updated", "class_id", c.ID, "title", c.Title)
	return c, nil
}

// UpdateSeriesInput carries input for a "this and all future" edit.
// The reference occurrence anchors the selection: scheduled siblings
// starting at or after it are updated, past weeks stay untouched.
type UpdateSeriesInput struct {
	ReferenceID string
	Patch       ClassPatch
}

// UpdateSeriesResult reports how many occurrences changed.
type UpdateSeriesResult struct {
	Updated int
}

// ExecuteUpdateSeries applies a patch across the future members of a
// recurring series. Time edits keep each sibling's calendar date and
// overwrite only the clock time, so "move the 6pm slot to 6:30pm"
// lands on every future week without shifting days.
// PRE: ReferenceID is non-empty
// POST: Returns count of occurrences updated, class.ErrNotFound for an
// unknown reference, class.ErrNotRecurring for a one-off class
func ExecuteUpdateSeries(ctx context.Context, input UpdateSeriesInput, deps UpdateClassDeps) (UpdateSeriesResult, error) {
	ref, err := deps.ClassStore.GetByID(ctx, input.ReferenceID)
	if err != nil {
		return UpdateSeriesResult{}, err
	}
	if ref.SeriesID == "" {
		return UpdateSeriesResult{}, class.ErrNotRecurring
	}

	siblings, err := deps.ClassStore.ListScheduledBySeriesSince(ctx, ref.SeriesID, ref.Start)
	if err != nil {
		return UpdateSeriesResult{}, err
	}

	updated := 0
	for _, sibling := range siblings {
		applySeriesPatch(&sibling, input.Patch)
		if err := sibling.Validate(); err != nil {
			return UpdateSeriesResult{Updated: updated}, err
		}
		if err := deps.ClassStore.Save(ctx, sibling); err != nil {
			return UpdateSeriesResult{Updated: updated}, err
		}
		updated++
	}

	slog.Info("class_event", "event", "series_updated", "series_id", ref.SeriesID, "updated", updated)
	return UpdateSeriesResult{Updated: updated}, nil
}

// applyPatch overwrites occurrence fields from non-nil patch fields.
func applyPatch(c *class.Class, patch ClassPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Start != nil {
		c.Start = *patch.Start
	}
	if patch.End != nil {
		c.End = *patch.End
	}
	if patch.Capacity != nil {
		c.Capacity = *patch.Capacity
	}
	if patch.Location != nil {
		c.Location = *patch.Location
	}
}

// applySeriesPatch is applyPatch with time-of-day semantics: each
// sibling keeps its own date and takes only the patch's clock time.
func applySeriesPatch(c *class.Class, patch ClassPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Start != nil {
		c.Start = dates.WithClockFrom(c.Start, patch.Start.UTC())
	}
	if patch.End != nil {
		c.End = dates.WithClockFrom(c.End, patch.End.UTC())
	}
	if patch.Capacity != nil {
		c.Capacity = *patch.Capacity
	}
	if patch.Location != nil {
		c.Location = *patch.Location
	}
}

package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"villagefit/internal/domain/class"
)

// ClassSaveStore defines the class store interface needed for creation.
type ClassSaveStore interface {
	Save(ctx context.Context, value class.Class) error
}

// CreateClassInput carries input for class creation. The same template
// serves single classes and recurring series.
type CreateClassInput struct {
	Title    string
	Start    time.Time
	End      time.Time
	Capacity int
	Location string
}

// CreateClassDeps holds dependencies for CreateClass.
type CreateClassDeps struct {
	ClassStore ClassSaveStore
	GenerateID func() string
}

// ExecuteCreateClass creates a single one-off class occurrence.
// PRE: input has been populated from the admin form
// POST: Occurrence persisted with status scheduled and no series ID
func ExecuteCreateClass(ctx context.Context, input CreateClassInput, deps CreateClassDeps) (class.Class, error) {
	c := class.Class{
		ID:       deps.GenerateID(),
		Title:    input.Title,
		Start:    input.Start,
		End:      input.End,
		Capacity: input.Capacity,
		Location: input.Location,
		Status:   class.StatusScheduled,
	}
	if err := c.Validate(); err != nil {
		return class.Class{}, err
	}
	if err := deps.ClassStore.Save(ctx, c); err != nil {
		return class.Class{}, err
	}

	slog.Info("class_event", "event", "class_created", "class_id", c.ID, "title", c.Title, "start", c.Start)
	return c, nil
}

// CreateRecurringSeriesInput carries input for series creation.
type CreateRecurringSeriesInput struct {
	CreateClassInput
	RepeatWeeks int // number of weekly occurrences to generate
}

// ExecuteCreateRecurringSeries expands a class template into weekly
// occurrences sharing one series ID. Each occurrence keeps the
// template's duration: end = shifted start + (template end - template
// start).
// PRE: RepeatWeeks >= 1
// POST: RepeatWeeks occurrences persisted, returned in week order
func ExecuteCreateRecurringSeries(ctx context.Context, input CreateRecurringSeriesInput, deps CreateClassDeps) ([]class.Class, error) {
	if input.RepeatWeeks < 1 {
		input.RepeatWeeks = 1
	}

	template := class.Class{
		Title:    input.Title,
		Start:    input.Start,
		End:      input.End,
		Capacity: input.Capacity,
		Location: input.Location,
		Status:   class.StatusScheduled,
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	duration := template.Duration()
	seriesID := deps.GenerateID()

	occurrences := make([]class.Class, 0, input.RepeatWeeks)
	for week := 0; week < input.RepeatWeeks; week++ {
		occ := template
		occ.ID = deps.GenerateID()
		occ.SeriesID = seriesID
		occ.Start = template.Start.AddDate(0, 0, 7*week)
		occ.End = occ.Start.Add(duration)
		if err := deps.ClassStore.Save(ctx, occ); err != nil {
			return occurrences, err
		}
		occurrences = append(occurrences, occ)
	}

	slog.Info("class_event", "event", "series_created", "series_id", seriesID, "title", input.Title, "weeks", input.RepeatWeeks)
	return occurrences, nil
}

package class

import (
	"context"
	"time"

	domain "villagefit/internal/domain/class"
)

// Store persists Class occurrences.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Class, error)
	Save(ctx context.Context, value domain.Class) error
	List(ctx context.Context, filter ListFilter) ([]domain.Class, error)
	ListUpcoming(ctx context.Context, after time.Time) ([]domain.Class, error)
	ListScheduledBySeriesSince(ctx context.Context, seriesID string, since time.Time) ([]domain.Class, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status string // optional: scheduled or cancelled
	Limit  int
	Offset int
}

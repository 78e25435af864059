package outbox

import (
	"context"

	domain "villagefit/internal/domain/outbox"
)

// Store persists notification outbox entries.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, value domain.Entry) error
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Entry, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

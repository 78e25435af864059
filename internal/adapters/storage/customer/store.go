package customer

import (
	"context"

	domain "villagefit/internal/domain/customer"
)

// Store persists Customer state including the live session-pass
// counters.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (domain.Customer, error)
	Save(ctx context.Context, value domain.Customer) error
	List(ctx context.Context, filter ListFilter) ([]domain.Customer, error)
	ListExpiredPasses(ctx context.Context) ([]domain.Customer, error)
	ListLowBalancePasses(ctx context.Context) ([]domain.Customer, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
}

package projections

import (
	"context"

	domainCustomer "villagefit/internal/domain/customer"
)

// PassAlertCustomerStore defines the customer store interface needed
// by the pass alerts projection.
type PassAlertCustomerStore interface {
	ListExpiredPasses(ctx context.Context) ([]domainCustomer.Customer, error)
	ListLowBalancePasses(ctx context.Context) ([]domainCustomer.Customer, error)
}

// ListPassAlertsResult groups the customers the front desk should
// prompt about renewal.
type ListPassAlertsResult struct {
	Expired    []domainCustomer.Customer // pass fully used, remaining = 0
	LowBalance []domainCustomer.Customer // 1 or 2 sessions left
}

// ListPassAlertsDeps holds dependencies for the pass alerts
// projection.
type ListPassAlertsDeps struct {
	CustomerStore PassAlertCustomerStore
}

// QueryListPassAlerts lists customers whose pass has run out or is
// about to, for renewal prompts at the front desk.
// PRE: CustomerStore is wired
// POST: Customers who never bought a pass appear in neither list
func QueryListPassAlerts(ctx context.Context, deps ListPassAlertsDeps) (ListPassAlertsResult, error) {
	expired, err := deps.CustomerStore.ListExpiredPasses(ctx)
	if err != nil {
		return ListPassAlertsResult{}, err
	}
	low, err := deps.CustomerStore.ListLowBalancePasses(ctx)
	if err != nil {
		return ListPassAlertsResult{}, err
	}
	return ListPassAlertsResult{Expired: expired, LowBalance: low}, nil
}

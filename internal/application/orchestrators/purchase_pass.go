package orchestrators

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	customerDomain "villagefit/internal/domain/customer"
	"villagefit/internal/domain/outbox"
	"villagefit/internal/domain/sessionpass"
)

// PassRenewalStore defines the session pass store interface needed for
// a pass purchase.
type PassRenewalStore interface {
	ArchiveAndReset(ctx context.Context, customerID string, sessionCount int, now time.Time) (*sessionpass.CompletedPass, error)
}

// PurchasePassInput carries the pass purchase request. A zero
// SessionCount means the standard pass size.
type PurchasePassInput struct {
	CustomerID   string
	SessionCount int
}

// PurchasePassDeps holds dependencies for the purchase flow.
type PurchasePassDeps struct {
	CustomerStore CustomerLookupByIDStore
	PassStore     PassRenewalStore
	Notifier      Notifier
	Now           func() time.Time
}

// CustomerLookupByIDStore defines the customer lookup by ID.
type CustomerLookupByIDStore interface {
	GetByID(ctx context.Context, id string) (customerDomain.Customer, error)
}

// PurchasePassResult carries the renewal outcome. Archived is nil when
// there was no prior pass activity to archive.
type PurchasePassResult struct {
	Customer customerDomain.Customer
	Archived *sessionpass.CompletedPass
}

// ExecutePurchasePass renews a customer's session pass. Any sessions
// recorded against the previous pass are archived as a completed pass,
// then the counters reset to the new pass size. Partially used passes
// archive as-is.
// PRE: CustomerID is non-empty
// POST: remaining == total == sessionCount, purchasedAt == now;
// customer.ErrNotFound or customer.ErrInvalidSessionCount on failure
func ExecutePurchasePass(ctx context.Context, input PurchasePassInput, deps PurchasePassDeps) (PurchasePassResult, error) {
	sessionCount := input.SessionCount
	if sessionCount == 0 {
		sessionCount = customerDomain.DefaultPassSessions
	}
	if sessionCount < 0 {
		return PurchasePassResult{}, customerDomain.ErrInvalidSessionCount
	}

	now := deps.Now()
	archived, err := deps.PassStore.ArchiveAndReset(ctx, input.CustomerID, sessionCount, now)
	if err != nil {
		return PurchasePassResult{}, err
	}

	cust, err := deps.CustomerStore.GetByID(ctx, input.CustomerID)
	if err != nil {
		return PurchasePassResult{}, err
	}

	if deps.Notifier != nil && cust.Email != "" {
		deps.Notifier.Notify(ctx, outbox.KindPassRenewed, cust.Email, map[string]string{
			"CustomerName": cust.Name,
			"SessionCount": strconv.Itoa(sessionCount),
		})
	}

	slog.Info("pass_event", "event", "pass_purchased", "customer_id", cust.ID,
		"session_count", sessionCount, "archived", archived != nil)
	return PurchasePassResult{Customer: cust, Archived: archived}, nil
}

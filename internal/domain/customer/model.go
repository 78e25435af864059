package customer

import (
	"errors"
	"strings"
	"time"
)

// DefaultPassSessions is the session count of a standard pass.
const DefaultPassSessions = 10

// LowBalanceThreshold is the remaining-session count at or below which
// a customer is prompted to renew (but has not yet run out).
const LowBalanceThreshold = 2

// Domain errors
var (
	ErrEmptyName            = errors.New("customer name cannot be empty")
	ErrEmptyEmail           = errors.New("customer email cannot be empty")
	ErrNegativeRemaining    = errors.New("session pass remaining cannot be negative")
	ErrRemainingExceedsPass = errors.New("session pass remaining cannot exceed total")
	ErrNotFound             = errors.New("customer not found")
	ErrNoSessionsRemaining  = errors.New("no sessions remaining on pass")
	ErrInvalidSessionCount  = errors.New("session count must be at least 1")
)

// Customer is a village resident tracked across bookings, keyed by
// normalized email. The embedded session-pass counters follow the
// invariant 0 <= PassRemaining <= PassTotal.
type Customer struct {
	ID              string
	Name            string
	Email           string // normalized
	Village         string
	PassRemaining   int
	PassTotal       int
	PassPurchasedAt time.Time // zero until the first pass is purchased
}

// Validate checks if the Customer has valid data.
// PRE: Customer struct is populated, Email already normalized
// POST: Returns nil if valid, error otherwise
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Email) == "" {
		return ErrEmptyEmail
	}
	if c.PassRemaining < 0 {
		return ErrNegativeRemaining
	}
	if c.PassRemaining > c.PassTotal {
		return ErrRemainingExceedsPass
	}
	return nil
}

// HasSessionsRemaining returns true if at least one session is left.
func (c *Customer) HasSessionsRemaining() bool {
	return c.PassRemaining > 0
}

// HasPass returns true once the customer has purchased any pass.
func (c *Customer) HasPass() bool {
	return !c.PassPurchasedAt.IsZero()
}

// IsPassExpired returns true when a purchased pass has no sessions left.
func (c *Customer) IsPassExpired() bool {
	return c.HasPass() && c.PassRemaining == 0
}

// IsLowBalance returns true when the pass is nearly used up: remaining
// between 1 and LowBalanceThreshold inclusive.
func (c *Customer) IsLowBalance() bool {
	return c.PassRemaining >= 1 && c.PassRemaining <= LowBalanceThreshold
}

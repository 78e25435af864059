package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"villagefit/internal/domain/account"
)

// ErrInvalidCredentials is returned for any unknown-email or
// wrong-password login, so the response never reveals which accounts
// exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AccountStore defines the account store interface needed for login.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, value account.Account) error
}

// LoginInput carries the staff login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for the login flow.
type LoginDeps struct {
	AccountStore AccountStore
	Now          func() time.Time
}

// LoginResult carries the authenticated account.
type LoginResult struct {
	Account account.Account
}

// ExecuteLogin authenticates a staff account. Failed attempts count
// toward the lockout policy; a locked account rejects even the correct
// password until the lockout expires.
// PRE: Email and Password are provided by the caller
// POST: Returns the account on success; ErrInvalidCredentials or
// account.ErrLocked otherwise
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := deps.Now()
	if acct.IsLocked(now) {
		slog.Warn("auth_event", "event", "login_rejected_locked", "email", email)
		return LoginResult{}, account.ErrLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if saveErr := deps.AccountStore.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "failed_login_save_error", "error", saveErr)
		}
		slog.Warn("auth_event", "event", "login_failed", "email", email, "failed_logins", acct.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.RecordSuccessfulLogin()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return LoginResult{}, err
		}
	}

	slog.Info("auth_event", "event", "login_succeeded", "email", email, "role", acct.Role)
	return LoginResult{Account: acct}, nil
}

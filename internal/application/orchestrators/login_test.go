package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	accountDomain "villagefit/internal/domain/account"
)

func seedAccount(t *testing.T, store *mockAccountStore, email, password string) accountDomain.Account {
	t.Helper()
	acct := accountDomain.Account{ID: "acct-1", Email: email, Role: accountDomain.RoleAdmin}
	if err := acct.SetPassword(password); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	store.accounts[email] = acct
	return acct
}

// TestExecuteLogin_Valid tests a correct email and password.
func TestExecuteLogin_Valid(t *testing.T) {
	store := newMockAccountStore()
	seedAccount(t, store, "admin@villagefit.test", "correct-horse-battery")

	result, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    " Admin@VillageFit.test ",
		Password: "correct-horse-battery",
	}, LoginDeps{AccountStore: store, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Account.Role != accountDomain.RoleAdmin {
		t.Errorf("expected admin role, got %s", result.Account.Role)
	}
}

// TestExecuteLogin_WrongPassword tests the generic rejection and the
// failure counter.
func TestExecuteLogin_WrongPassword(t *testing.T) {
	store := newMockAccountStore()
	seedAccount(t, store, "admin@villagefit.test", "correct-horse-battery")

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@villagefit.test",
		Password: "wrong-password-here",
	}, LoginDeps{AccountStore: store, Now: fixedNow})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := store.accounts["admin@villagefit.test"].FailedLogins; got != 1 {
		t.Errorf("expected 1 failed login recorded, got %d", got)
	}
}

// TestExecuteLogin_UnknownEmail tests that a missing account gets the
// same generic rejection as a wrong password.
func TestExecuteLogin_UnknownEmail(t *testing.T) {
	store := newMockAccountStore()
	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "ghost@villagefit.test",
		Password: "whatever-it-is",
	}, LoginDeps{AccountStore: store, Now: fixedNow})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

// TestExecuteLogin_LockoutAfterRepeatedFailures tests that the account
// locks after too many wrong passwords, then rejects even the correct
// one until the lockout expires.
func TestExecuteLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	store := newMockAccountStore()
	seedAccount(t, store, "admin@villagefit.test", "correct-horse-battery")
	deps := LoginDeps{AccountStore: store, Now: fixedNow}

	for i := 0; i < accountDomain.MaxFailedLogins; i++ {
		_, err := ExecuteLogin(context.Background(), LoginInput{
			Email:    "admin@villagefit.test",
			Password: "wrong-password-here",
		}, deps)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	_, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@villagefit.test",
		Password: "correct-horse-battery",
	}, deps)
	if !errors.Is(err, accountDomain.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// After the lockout window the correct password works and clears
	// the failure state.
	later := func() time.Time { return fixedTime.Add(accountDomain.LockoutDuration + time.Minute) }
	result, err := ExecuteLogin(context.Background(), LoginInput{
		Email:    "admin@villagefit.test",
		Password: "correct-horse-battery",
	}, LoginDeps{AccountStore: store, Now: later})
	if err != nil {
		t.Fatalf("expected login after lockout expiry, got %v", err)
	}
	if result.Account.FailedLogins != 0 {
		t.Errorf("expected failure counter cleared, got %d", result.Account.FailedLogins)
	}
	if got := store.accounts["admin@villagefit.test"].FailedLogins; got != 0 {
		t.Errorf("expected cleared counter persisted, got %d", got)
	}
}

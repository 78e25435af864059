package account_test

import (
	"testing"
	"time"

	"villagefit/internal/domain/account"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*account.Account)
		wantErr error
	}{
		{name: "valid", mutate: func(a *account.Account) {}, wantErr: nil},
		{name: "empty email", mutate: func(a *account.Account) { a.Email = "  " }, wantErr: account.ErrEmptyEmail},
		{name: "email missing @", mutate: func(a *account.Account) { a.Email = "office.example.com" }, wantErr: account.ErrInvalidEmail},
		{name: "bad role", mutate: func(a *account.Account) { a.Role = "superuser" }, wantErr: account.ErrInvalidRole},
		{name: "coordinator role", mutate: func(a *account.Account) { a.Role = account.RoleCoordinator }, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := account.Account{
				ID:    "acct-1",
				Email: "office@example.com",
				Role:  account.RoleAdmin,
			}
			tt.mutate(&a)
			if err := a.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestSetPassword_Policy tests the minimum-length policy and that the
// stored hash verifies.
func TestSetPassword_Policy(t *testing.T) {
	var a account.Account

	if err := a.SetPassword(""); err != account.ErrEmptyPassword {
		t.Errorf("empty password: got %v, want ErrEmptyPassword", err)
	}
	if err := a.SetPassword("shortpw"); err != account.ErrPasswordTooShort {
		t.Errorf("short password: got %v, want ErrPasswordTooShort", err)
	}

	if err := a.SetPassword("a long enough passphrase"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if a.PasswordHash == "" || a.PasswordHash == "a long enough passphrase" {
		t.Error("expected a hash, not empty or plaintext")
	}
	if err := a.CheckPassword("a long enough passphrase"); err != nil {
		t.Errorf("CheckPassword for correct password: %v", err)
	}
	if err := a.CheckPassword("the wrong passphrase"); err != account.ErrWrongPassword {
		t.Errorf("CheckPassword for wrong password: got %v, want ErrWrongPassword", err)
	}
}

// TestCheckPassword_NoHash verifies an account without a stored hash
// never authenticates.
func TestCheckPassword_NoHash(t *testing.T) {
	var a account.Account
	if err := a.CheckPassword("anything at all"); err != account.ErrWrongPassword {
		t.Errorf("got %v, want ErrWrongPassword", err)
	}
}

// TestLockout tests the failure counter, lockout window and reset.
func TestLockout(t *testing.T) {
	now := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	var a account.Account

	for i := 0; i < account.MaxFailedLogins-1; i++ {
		a.RecordFailedLogin(now)
		if a.IsLocked(now) {
			t.Fatalf("locked after %d failures, threshold is %d", i+1, account.MaxFailedLogins)
		}
	}

	a.RecordFailedLogin(now)
	if !a.IsLocked(now) {
		t.Fatal("expected lock after reaching the failure threshold")
	}
	if a.IsLocked(now.Add(account.LockoutDuration)) {
		t.Error("expected lock to expire after the lockout duration")
	}

	a.RecordSuccessfulLogin()
	if a.FailedLogins != 0 {
		t.Errorf("expected failure counter cleared, got %d", a.FailedLogins)
	}
	if a.IsLocked(now) {
		t.Error("expected no lock after a successful login")
	}
}

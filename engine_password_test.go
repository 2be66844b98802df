package goCred

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal"
	"github.com/MrEthical07/goCred/notify"
)

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	if err := env.engine.ChangePassword(ctx, acct.ID, testPassword, "Changed123!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, "alice", "Changed123!", ""); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if n := env.notifier.Count(notify.KindPasswordChanged); n != 1 {
		t.Fatalf("expected one change notice, got %d", n)
	}
}

func TestChangePasswordSamePassword(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	before := env.load(t, acct.ID)

	err := env.engine.ChangePassword(context.Background(), acct.ID, testPassword, testPassword)
	if !errors.Is(err, ErrSamePassword) {
		t.Fatalf("expected ErrSamePassword, got %v", err)
	}
	after := env.load(t, acct.ID)
	if after.Version != before.Version || after.PasswordHash != before.PasswordHash {
		t.Fatal("same-password change mutated the account")
	}
}

func TestChangePasswordWrongCurrentCounts(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)

	err := env.engine.ChangePassword(context.Background(), acct.ID, "wrong", "Changed123!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := env.load(t, acct.ID).FailedLoginAttempts; got != 1 {
		t.Fatalf("expected 1 failure, got %d", got)
	}
}

func TestChangePasswordPolicy(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)

	err := env.engine.ChangePassword(context.Background(), acct.ID, testPassword, "short")
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
}

func TestChangePasswordUnknownAccount(t *testing.T) {
	env := newTestEnv(t, testConfig())

	err := env.engine.ChangePassword(context.Background(), 42, testPassword, "Changed123!")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChangePasswordClearsResetToken(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	if err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := env.lastSecret(t, notify.KindResetLink)

	if err := env.engine.ChangePassword(ctx, acct.ID, testPassword, "Changed123!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := env.engine.ResetPassword(ctx, token, "Another123!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected outstanding reset token revoked, got %v", err)
	}
}

func TestPasswordResetSingleUse(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	if err := env.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := env.lastSecret(t, notify.KindResetLink)

	stored := env.load(t, acct.ID)
	if stored.PasswordResetToken == nil || *stored.PasswordResetToken == token {
		t.Fatal("expected only the token digest to be stored")
	}
	if *stored.PasswordResetToken != internal.DigestToken(token) {
		t.Fatal("stored digest does not match delivered token")
	}

	if err := env.engine.ResetPassword(ctx, token, "NewPass1!"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if err := env.engine.ResetPassword(ctx, token, "Other1!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected consumed token rejected, got %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, "alice", "NewPass1!", ""); err != nil {
		t.Fatalf("authenticate with reset password: %v", err)
	}
	if n := env.notifier.Count(notify.KindResetConfirmation); n != 1 {
		t.Fatalf("expected one confirmation, got %d", n)
	}
}

func TestPasswordResetExpiry(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t)
	ctx := context.Background()

	env.engine.RequestPasswordReset(ctx, "alice@example.com")
	token := env.lastSecret(t, notify.KindResetLink)

	env.clock.Advance(time.Hour - time.Second)
	if _, err := env.engine.ValidateResetToken(ctx, token); err != nil {
		t.Fatalf("token must be valid one second before expiry, got %v", err)
	}
	if err := env.engine.ResetPassword(ctx, token, "NewPass1!"); err != nil {
		t.Fatalf("reset one second before expiry: %v", err)
	}

	env.engine.RequestPasswordReset(ctx, "alice@example.com")
	token = env.lastSecret(t, notify.KindResetLink)

	for _, step := range []time.Duration{time.Hour, time.Second} {
		env.clock.Advance(step)
		if _, err := env.engine.ValidateResetToken(ctx, token); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("expected expired token rejected, got %v", err)
		}
		if err := env.engine.ResetPassword(ctx, token, "Other1!x"); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("expected expired token rejected, got %v", err)
		}
	}
}

func TestPasswordResetClearsLock(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.engine.Authenticate(ctx, "alice", "wrong", "")
	}

	env.engine.RequestPasswordReset(ctx, "alice@example.com")
	token := env.lastSecret(t, notify.KindResetLink)

	got, err := env.engine.ValidateResetToken(ctx, token)
	if err != nil || got.ID != acct.ID {
		t.Fatalf("validate token: %v", err)
	}
	if err := env.engine.ResetPassword(ctx, token, "NewPass1!"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	stored := env.load(t, acct.ID)
	if stored.FailedLoginAttempts != 0 || stored.AccountLockedUntil != nil {
		t.Fatalf("lock not cleared: %d %v", stored.FailedLoginAttempts, stored.AccountLockedUntil)
	}
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t, testConfig())

	if err := env.engine.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected nil for unknown email, got %v", err)
	}
	if n := env.notifier.Count(notify.KindResetLink); n != 0 {
		t.Fatalf("expected no delivery, got %d", n)
	}
}

func TestPasswordResetMalformedToken(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t)

	if err := env.engine.ResetPassword(context.Background(), "not-a-token", "NewPass1!"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestPasswordResetDeliveryFailure(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	env.notifier.FailWith(notify.KindResetLink, errors.New("smtp down"))

	err := env.engine.RequestPasswordReset(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if env.load(t, acct.ID).PasswordResetToken == nil {
		t.Fatal("token must be persisted before delivery")
	}
}

func TestTwoFactorEnableDisable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	setup, err := env.engine.EnableTwoFactor(ctx, acct.ID)
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if setup.Secret == "" || setup.URI == "" {
		t.Fatalf("incomplete setup %+v", setup)
	}
	if _, err := env.engine.EnableTwoFactor(ctx, acct.ID); !errors.Is(err, ErrTwoFactorEnabled) {
		t.Fatalf("expected ErrTwoFactorEnabled, got %v", err)
	}
	if stored := env.load(t, acct.ID); stored.OTPSecret == nil || *stored.OTPSecret != setup.Secret {
		t.Fatal("secret rotated by second enable")
	}

	if err := env.engine.DisableTwoFactor(ctx, acct.ID, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := env.engine.DisableTwoFactor(ctx, acct.ID, testPassword); err != nil {
		t.Fatalf("disable: %v", err)
	}

	stored := env.load(t, acct.ID)
	if stored.TwoFactorEnabled || stored.OTPSecret != nil {
		t.Fatal("two-factor state not cleared")
	}
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); err != nil {
		t.Fatalf("authenticate without second factor: %v", err)
	}
}

func TestTwoFactorDisabledAccount(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	env.mutate(t, acct.ID, func(a *account.Account) { a.Enabled = false })

	if _, err := env.engine.EnableTwoFactor(context.Background(), acct.ID); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

package goCred

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/store/memory"
	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func TestAuthenticateSucceedsAfterRegister(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)

	res, err := env.engine.Authenticate(context.Background(), "alice", testPassword, "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if res.Identity.AccountID != acct.ID || res.Identity.Role != RoleUser {
		t.Fatalf("unexpected identity %+v", res.Identity)
	}
	if res.Token != "" {
		t.Fatal("token issued with tokens disabled")
	}

	stored := env.load(t, acct.ID)
	if stored.LastLogin == nil || !stored.LastLogin.Equal(testEpoch) {
		t.Fatalf("expected last login %v, got %v", testEpoch, stored.LastLogin)
	}
	if stored.FailedLoginAttempts != 0 {
		t.Fatalf("expected 0 failures, got %d", stored.FailedLoginAttempts)
	}
}

func TestAuthenticateByEmail(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t)

	if _, err := env.engine.Authenticate(context.Background(), "alice@example.com", testPassword, ""); err != nil {
		t.Fatalf("authenticate by email: %v", err)
	}
}

func TestAuthenticateWrongPasswordCountsFailures(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Authenticate(ctx, "alice", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	stored := env.load(t, acct.ID)
	if stored.FailedLoginAttempts != 3 {
		t.Fatalf("expected 3 failures, got %d", stored.FailedLoginAttempts)
	}
	if stored.AccountLockedUntil != nil {
		t.Fatalf("unexpected lock %v", stored.AccountLockedUntil)
	}
}

func TestAuthenticateLocksAtThreshold(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.engine.Authenticate(ctx, "alice", "wrong", "")
	}

	stored := env.load(t, acct.ID)
	want := testEpoch.Add(15 * time.Minute)
	if stored.AccountLockedUntil == nil || !stored.AccountLockedUntil.Equal(want) {
		t.Fatalf("expected lock until %v, got %v", want, stored.AccountLockedUntil)
	}

	// The right password is refused while locked and still counts.
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if got := env.load(t, acct.ID).FailedLoginAttempts; got != 6 {
		t.Fatalf("expected 6 failures, got %d", got)
	}
	if got := env.load(t, acct.ID).AccountLockedUntil; !got.Equal(want) {
		t.Fatalf("lock extended to %v", got)
	}
}

func TestAuthenticateLockExpires(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.engine.Authenticate(ctx, "alice", "wrong", "")
	}

	env.clock.Advance(15*time.Minute - time.Second)
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected lock one second before its end, got %v", err)
	}

	env.clock.Advance(time.Second)
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); err != nil {
		t.Fatalf("lock must end at its timestamp, got %v", err)
	}
	stored := env.load(t, acct.ID)
	if stored.FailedLoginAttempts != 0 || stored.AccountLockedUntil != nil {
		t.Fatalf("lock state not cleared: %d %v", stored.FailedLoginAttempts, stored.AccountLockedUntil)
	}
}

func TestAuthenticateUnknownIdentifierMutatesNothing(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	before := env.load(t, acct.ID).Version

	if _, err := env.engine.Authenticate(context.Background(), "bob", testPassword, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.engine.Authenticate(context.Background(), "", testPassword, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty identifier, got %v", err)
	}
	if env.store.Len() != 1 {
		t.Fatalf("expected 1 account, got %d", env.store.Len())
	}
	if after := env.load(t, acct.ID).Version; after != before {
		t.Fatalf("account mutated: version %d -> %d", before, after)
	}
}

func TestAuthenticateGatingOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*account.Account)
		want   error
	}{
		{
			name:   "disabled",
			mutate: func(a *account.Account) { a.Enabled = false },
			want:   ErrAccountDisabled,
		},
		{
			name:   "expired",
			mutate: func(a *account.Account) { a.AccountNonExpired = false },
			want:   ErrAccountExpired,
		},
		{
			name: "disabled before expired",
			mutate: func(a *account.Account) {
				a.Enabled = false
				a.AccountNonExpired = false
			},
			want: ErrAccountDisabled,
		},
		{
			name: "expired before locked",
			mutate: func(a *account.Account) {
				a.AccountNonExpired = false
				a.AccountLockedUntil = account.TimePtr(testEpoch.Add(time.Hour))
			},
			want: ErrAccountExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testConfig())
			acct := env.register(t)
			env.mutate(t, acct.ID, tt.mutate)

			_, err := env.engine.Authenticate(context.Background(), "alice", testPassword, "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if got := env.load(t, acct.ID).FailedLoginAttempts; got != 1 {
				t.Fatalf("expected failure counted, got %d", got)
			}
		})
	}
}

func TestAuthenticateStaleLockIsIgnored(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	env.mutate(t, acct.ID, func(a *account.Account) {
		a.FailedLoginAttempts = 5
		a.AccountLockedUntil = account.TimePtr(testEpoch.Add(-time.Minute))
	})

	if _, err := env.engine.Authenticate(context.Background(), "alice", testPassword, ""); err != nil {
		t.Fatalf("authenticate with stale lock: %v", err)
	}
}

func TestAuthenticateWithDeliveredCode(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	if _, err := env.engine.EnableTwoFactor(ctx, acct.ID); err != nil {
		t.Fatalf("enable two-factor: %v", err)
	}

	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); !errors.Is(err, ErrOTPRequired) {
		t.Fatalf("expected ErrOTPRequired, got %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, "000000"); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP, got %v", err)
	}

	if err := env.engine.RequestOTP(ctx, "alice", ChannelEmail); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	code := env.lastSecret(t, notify.KindOTP)

	res, err := env.engine.Authenticate(ctx, "alice", testPassword, code)
	if err != nil {
		t.Fatalf("authenticate with code: %v", err)
	}
	if res.SecondFactor != "otp" {
		t.Fatalf("expected otp second factor, got %q", res.SecondFactor)
	}
	stored := env.load(t, acct.ID)
	if stored.OTPCode != nil || stored.OTPExpiry != nil {
		t.Fatal("code not cleared after use")
	}
	if stored.FailedLoginAttempts != 0 {
		t.Fatalf("expected counter reset, got %d", stored.FailedLoginAttempts)
	}
}

func TestAuthenticateWithAuthenticatorCode(t *testing.T) {
	cfg := testConfig()
	cfg.OTP.AcceptTOTP = true
	env := newTestEnv(t, cfg)
	acct := env.register(t)
	ctx := context.Background()

	setup, err := env.engine.EnableTwoFactor(ctx, acct.ID)
	if err != nil {
		t.Fatalf("enable two-factor: %v", err)
	}

	code, err := totp.GenerateCodeCustom(setup.Secret, env.clock.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    pqotp.DigitsSix,
		Algorithm: pqotp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	res, err := env.engine.Authenticate(ctx, "alice", testPassword, code)
	if err != nil {
		t.Fatalf("authenticate with authenticator code: %v", err)
	}
	if res.SecondFactor != "totp" {
		t.Fatalf("expected totp second factor, got %q", res.SecondFactor)
	}

	// The same step cannot be replayed.
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, code); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected replay rejected, got %v", err)
	}
}

func TestAuthenticateIssuesIdentityToken(t *testing.T) {
	cfg := testConfig()
	cfg.Token.Enabled = true
	cfg.Token.PrivateKey = []byte(testSecret)

	engine, err := New().WithConfig(cfg).WithStore(memory.New()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Register(ctx, RegisterRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: testPassword,
		Role:     RoleModerator,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := engine.Authenticate(ctx, "carol", testPassword, "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if res.Token == "" || res.TokenExpiry.IsZero() {
		t.Fatal("expected identity token")
	}

	identity, err := engine.ParseIdentity(ctx, res.Token)
	if err != nil {
		t.Fatalf("parse identity: %v", err)
	}
	if identity != res.Identity {
		t.Fatalf("identity mismatch: %+v vs %+v", identity, res.Identity)
	}
	if !Authorize(identity, RoleUser) || Authorize(identity, RoleAdmin) {
		t.Fatalf("unexpected authorization for %+v", identity)
	}

	if _, err := engine.ParseIdentity(ctx, res.Token+"x"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.Authenticate(context.Background(), "alice", testPassword, ""); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.RequestOTP(context.Background(), "alice", ChannelEmail); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestAuthenticateEd25519TokenFollowsEngineClock(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	cfg := testConfig()
	cfg.Token.Enabled = true
	cfg.Token.SigningMethod = "ed25519"
	cfg.Token.PrivateKey = priv

	env := newTestEnv(t, cfg)
	acct := env.register(t)
	ctx := context.Background()

	res, err := env.engine.Authenticate(ctx, "alice", testPassword, "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	identity, err := env.engine.ParseIdentity(ctx, res.Token)
	if err != nil || identity.AccountID != acct.ID {
		t.Fatalf("parse identity: %+v %v", identity, err)
	}

	env.clock.Advance(cfg.Token.TTL + time.Second)
	if _, err := env.engine.ParseIdentity(ctx, res.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestBuildRejectsVerifyOnlyTokenConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Token.Enabled = true
	cfg.Token.SigningMethod = "ed25519"
	cfg.Token.PublicKey = ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize)).Public().(ed25519.PublicKey)

	if _, err := New().WithConfig(cfg).WithStore(memory.New()).Build(); err == nil {
		t.Fatal("expected build to refuse a token config that cannot sign")
	}
}

func TestAuthenticateFailureAfterExpiredLockRelocks(t *testing.T) {
	env := newTestEnv(t, testConfig())
	acct := env.register(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.engine.Authenticate(ctx, "alice", "wrong", "")
	}
	env.clock.Advance(16 * time.Minute)

	if _, err := env.engine.Authenticate(ctx, "alice", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	stored := env.load(t, acct.ID)
	if stored.FailedLoginAttempts != 6 || stored.AccountLockedUntil == nil {
		t.Fatalf("expected a fresh lock at 6 failures, got %d %v", stored.FailedLoginAttempts, stored.AccountLockedUntil)
	}
	if _, err := env.engine.Authenticate(ctx, "alice", testPassword, ""); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/otp"
	"go.uber.org/zap"
)

// AuthenticateDeps captures authenticate dependencies.
type AuthenticateDeps struct {
	Common

	Lockout        lockout.Policy
	UpgradeOnLogin bool
	AcceptTOTP     bool
	TOTP           otp.TOTPConfig

	// DummyDigest is verified against on unknown identifiers so the
	// not-found path costs one hash verification like every other path.
	DummyDigest string
}

// AuthenticateOutcome is the state after a successful authentication.
type AuthenticateOutcome struct {
	Account *account.Account
	// SecondFactor is "", "otp" or "totp".
	SecondFactor string
}

// RunAuthenticate executes the login decision for identifier, password and
// an optional second-factor code.
//
// Gating order: exists, enabled, not expired, not locked, password, second
// factor. Every failure after the lookup is persisted as a failed attempt;
// an unknown identifier mutates nothing.
func RunAuthenticate(ctx context.Context, identifier, plaintext, code string, deps AuthenticateDeps) (*AuthenticateOutcome, error) {
	normalizeCommon(&deps.Common)
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(accountID int64, reason string, err error) {
		deps.MetricInc(deps.Metrics.AuthFailure)
		deps.EmitAudit(ctx, deps.Events.AuthFailure, false, accountID, identifier, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
	}

	if identifier == "" {
		deps.dummyVerify(plaintext)
		deps.MetricInc(deps.Metrics.AuthNotFound)
		fail(0, "empty_identifier", deps.Errors.NotFound)
		return nil, deps.Errors.NotFound
	}

	acct, err := deps.Store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.dummyVerify(plaintext)
			deps.MetricInc(deps.Metrics.AuthNotFound)
			fail(0, "not_found", deps.Errors.NotFound)
			return nil, deps.Errors.NotFound
		}
		return nil, deps.storeError(err)
	}

	// The hash is verified once against the loaded digest; a retry only
	// re-verifies when a concurrent write replaced the digest.
	verifiedDigest := acct.PasswordHash
	passwordOK := plaintext != "" && deps.verify(plaintext, verifiedDigest)

	now := deps.Now()
	var (
		reason       string
		secondFactor string
		upgraded     string
	)

	decide := func(a *account.Account) error {
		reason, secondFactor, upgraded = "", "", ""
		switch {
		case !a.Enabled:
			reason = "disabled"
			return deps.Errors.AccountDisabled
		case !a.AccountNonExpired:
			reason = "expired"
			return deps.Errors.AccountExpired
		case deps.Lockout.IsLocked(a, now):
			reason = "locked"
			return deps.Errors.AccountLocked
		}

		if a.PasswordHash != verifiedDigest {
			verifiedDigest = a.PasswordHash
			passwordOK = plaintext != "" && deps.verify(plaintext, verifiedDigest)
		}
		if !passwordOK {
			reason = "password_mismatch"
			return deps.Errors.InvalidCredentials
		}

		if !a.TwoFactorEnabled {
			return nil
		}
		if code == "" {
			reason = "otp_missing"
			return deps.Errors.OTPRequired
		}
		if otp.Verify(a, code, now) {
			otp.Clear(a)
			secondFactor = "otp"
			return nil
		}
		if deps.AcceptTOTP && a.OTPSecret != nil {
			if step, ok := otp.VerifyTOTP(deps.TOTP, *a.OTPSecret, code, now, a.TOTPLastStep); ok {
				a.TOTPLastStep = step
				secondFactor = "totp"
				return nil
			}
		}
		reason = "otp_invalid"
		return deps.Errors.InvalidOrExpiredOTP
	}

	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if outcome := decide(a); outcome != nil {
			deps.Lockout.OnFailure(a, now)
			return true, outcome
		}
		deps.Lockout.OnSuccess(a, now)
		deps.applyUpgrade(a, plaintext, &upgraded)
		return true, nil
	})
	if err != nil {
		if saved == nil {
			deps.Logger.Warn("authenticate: state not persisted",
				zap.Int64("account_id", acct.ID),
				zap.Error(err),
			)
			return nil, err
		}
		if errors.Is(err, deps.Errors.AccountLocked) {
			deps.MetricInc(deps.Metrics.AuthLocked)
		}
		deps.MetricInc(deps.Metrics.AuthFailure)
		deps.EmitAudit(ctx, deps.Events.AuthFailure, false, saved.ID, identifier, err, func() map[string]string {
			m := map[string]string{"reason": reason}
			if left := deps.Lockout.Remaining(saved, now); left > 0 {
				m["locked_until"] = saved.AccountLockedUntil.UTC().Format(time.RFC3339)
				m["lock_remaining"] = left.String()
			}
			return m
		})
		return nil, err
	}

	deps.MetricInc(deps.Metrics.AuthSuccess)
	deps.EmitAudit(ctx, deps.Events.AuthSuccess, true, saved.ID, identifier, nil, func() map[string]string {
		m := map[string]string{}
		if secondFactor != "" {
			m["second_factor"] = secondFactor
		}
		if upgraded != "" {
			m["hash"] = upgraded
		}
		return m
	})
	return &AuthenticateOutcome{Account: saved, SecondFactor: secondFactor}, nil
}

func (d *AuthenticateDeps) dummyVerify(plaintext string) {
	if d.DummyDigest != "" {
		_, _ = d.Hasher.Verify(plaintext, d.DummyDigest)
	}
}

// applyUpgrade rehashes a digest the hasher flags as outdated. When
// rehashing is off or fails, the account is marked as needing a password
// change instead.
func (d *AuthenticateDeps) applyUpgrade(a *account.Account, plaintext string, upgraded *string) {
	needs, err := d.Hasher.NeedsUpgrade(a.PasswordHash)
	if err != nil || !needs {
		return
	}
	if d.UpgradeOnLogin {
		digest, err := d.Hasher.Hash(plaintext)
		if err == nil {
			a.PasswordHash = digest
			a.CredentialsCurrent = true
			*upgraded = "rehashed"
			d.MetricInc(d.Metrics.HashUpgrade)
			return
		}
		d.Logger.Warn("password rehash failed", zap.Int64("account_id", a.ID), zap.Error(err))
	}
	a.CredentialsCurrent = false
	*upgraded = "stale"
}

package flows

import (
	"context"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/otp"
)

// TwoFactorDeps captures two-factor enrollment dependencies.
type TwoFactorDeps struct {
	Common
	Lockout lockout.Policy
	TOTP    otp.TOTPConfig
}

// RunEnableTwoFactor turns on the second factor for accountID and stores a
// fresh authenticator secret. Enabling an already enabled account returns
// TwoFactorEnabled without rotating the secret.
func RunEnableTwoFactor(ctx context.Context, accountID int64, deps TwoFactorDeps) (otp.Enrollment, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil {
		return otp.Enrollment{}, deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		return otp.Enrollment{}, deps.storeError(err)
	}
	if !acct.Enabled {
		return otp.Enrollment{}, deps.Errors.AccountDisabled
	}

	label := acct.Email
	if label == "" {
		label = acct.Username
	}
	enrollment, err := otp.Enroll(deps.TOTP, label)
	if err != nil {
		return otp.Enrollment{}, err
	}

	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if a.TwoFactorEnabled {
			return false, deps.Errors.TwoFactorEnabled
		}
		secret := enrollment.Secret
		a.TwoFactorEnabled = true
		a.OTPSecret = &secret
		a.TOTPLastStep = 0
		otp.Clear(a)
		return true, nil
	})
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.TwoFactorEnable, false, accountID, acct.Username, err, nil)
		return otp.Enrollment{}, err
	}

	deps.MetricInc(deps.Metrics.TwoFactorEnable)
	deps.EmitAudit(ctx, deps.Events.TwoFactorEnable, true, saved.ID, saved.Username, nil, nil)
	return enrollment, nil
}

// RunDisableTwoFactor turns off the second factor after verifying
// currentPassword, clearing the secret and any outstanding code in the same
// save. A wrong password counts as a failed attempt.
func RunDisableTwoFactor(ctx context.Context, accountID int64, currentPassword string, deps TwoFactorDeps) error {
	normalizeCommon(&deps.Common)
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		return deps.storeError(err)
	}

	now := deps.Now()
	verifiedDigest := acct.PasswordHash
	passwordOK := currentPassword != "" && deps.verify(currentPassword, verifiedDigest)

	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if deps.Lockout.IsLocked(a, now) {
			return false, deps.Errors.AccountLocked
		}
		if a.PasswordHash != verifiedDigest {
			verifiedDigest = a.PasswordHash
			passwordOK = currentPassword != "" && deps.verify(currentPassword, verifiedDigest)
		}
		if !passwordOK {
			deps.Lockout.OnFailure(a, now)
			return true, deps.Errors.InvalidCredentials
		}
		if !a.TwoFactorEnabled && a.OTPSecret == nil {
			return false, nil
		}
		a.TwoFactorEnabled = false
		a.OTPSecret = nil
		a.TOTPLastStep = 0
		otp.Clear(a)
		return true, nil
	})
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.TwoFactorDisable, false, accountID, acct.Username, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.TwoFactorDisable)
	deps.EmitAudit(ctx, deps.Events.TwoFactorDisable, true, saved.ID, saved.Username, nil, nil)
	return nil
}

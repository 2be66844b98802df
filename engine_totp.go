package goCred

import (
	"context"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// EnableTwoFactor turns on the second factor for the account and returns a
// fresh authenticator secret with its otpauth:// URI. Delivered codes from
// RequestOTP work from then on; authenticator codes are accepted when
// OTP.AcceptTOTP is set.
//
// ErrTwoFactorEnabled is returned when the account already has a secret.
func (e *Engine) EnableTwoFactor(ctx context.Context, accountID int64) (*TwoFactorSetup, error) {
	enrollment, err := internalflows.RunEnableTwoFactor(ctx, accountID, e.twoFactorFlowDeps())
	if err != nil {
		return nil, err
	}
	return &TwoFactorSetup{Secret: enrollment.Secret, URI: enrollment.URI}, nil
}

// DisableTwoFactor turns off the second factor after re-checking the
// current password, and clears the secret and any outstanding code. A wrong
// password counts toward the lock.
func (e *Engine) DisableTwoFactor(ctx context.Context, accountID int64, currentPassword string) error {
	return internalflows.RunDisableTwoFactor(ctx, accountID, currentPassword, e.twoFactorFlowDeps())
}

func (e *Engine) twoFactorFlowDeps() internalflows.TwoFactorDeps {
	deps := internalflows.TwoFactorDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.Lockout = e.lockout
	deps.TOTP = e.totpConfig()
	return deps
}

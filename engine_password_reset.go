package goCred

import (
	"context"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// RequestPasswordReset issues a single-use reset token for the account
// registered under email and mails a link carrying it. Only the token's
// digest is stored.
//
// Unknown and disabled accounts return nil after the same bounded delay. A
// non-nil error other than ErrDeliveryFailed, ErrRateLimited or
// ErrInvalidRequest means the store failed.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	return internalflows.RunRequestPasswordReset(ctx, email, e.passwordResetFlowDeps())
}

// ValidateResetToken returns the account a reset token belongs to without
// consuming it, for rendering a reset form.
func (e *Engine) ValidateResetToken(ctx context.Context, token string) (*Account, error) {
	return internalflows.RunValidateResetToken(ctx, token, e.passwordResetFlowDeps())
}

// ResetPassword consumes token and sets newPassword. The new digest, the
// cleared token and the cleared lockout state are written in one save;
// a token therefore resets at most once.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	return internalflows.RunResetPassword(ctx, token, newPassword, e.passwordResetFlowDeps())
}

func (e *Engine) passwordResetFlowDeps() internalflows.PasswordResetDeps {
	deps := internalflows.PasswordResetDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.TTL = e.config.PasswordReset.TTL
	if e.limiter != nil {
		deps.Throttle = func(ctx context.Context, email, ip string) error {
			return e.throttled(e.limiter.AllowResetRequest(ctx, email, ip))
		}
	}
	return deps
}
